package report

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AngelCh415/GSC_GO/internal/metrics"
	"github.com/AngelCh415/GSC_GO/internal/models"
	"github.com/AngelCh415/GSC_GO/internal/observability"
	"github.com/AngelCh415/GSC_GO/internal/store"
)

// Service answers report, ranking and series questions over a store.
type Service struct {
	st      store.Store
	engine  *Engine
	metrics *observability.Metrics
	log     *zap.Logger
}

func NewService(st store.Store, engine *Engine, m *observability.Metrics, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{st: st, engine: engine, metrics: m, log: log}
}

func (s *Service) Report(ctx context.Context, p1, p2 models.Period, opts Options) (*Report, error) {
	t, err := s.st.Table(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load stored rows")
	}
	rep, err := s.engine.Build(t, p1, p2, opts)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ReportsBuilt.Inc()
		s.metrics.RowsDropped.WithLabelValues("no_date").Add(float64(rep.Dropped))
	}
	s.log.Info("report built",
		zap.String("p1", p1.String()), zap.String("p2", p2.String()),
		zap.Int("sections", rep.Len()), zap.Int("dropped", rep.Dropped))
	return rep, nil
}

// Top ranks entities between two stored periods. Query labels come from the
// engine's matcher unless opts carries its own.
func (s *Service) Top(ctx context.Context, p1, p2 models.Period, opts metrics.RankOptions) ([]models.RankedEntity, error) {
	r1, err := s.st.Query(ctx, p1.Start, p1.End)
	if err != nil {
		return nil, eris.Wrapf(err, "report: load %s", p1.Label)
	}
	r2, err := s.st.Query(ctx, p2.Start, p2.End)
	if err != nil {
		return nil, eris.Wrapf(err, "report: load %s", p2.Label)
	}
	if opts.Matcher == nil {
		opts.Matcher = s.engine.Matcher()
	}
	return metrics.TopN(r1, r2, opts), nil
}

func (s *Service) Series(ctx context.Context, opts metrics.SeriesOptions, filter metrics.EntityFilter) ([]metrics.SeriesPoint, error) {
	var (
		recs []models.Record
		err  error
	)
	if !opts.From.IsZero() && !opts.To.IsZero() {
		recs, err = s.st.Query(ctx, opts.From, opts.To)
	} else {
		var t models.Table
		t, err = s.st.Table(ctx)
		recs = t.Records
	}
	if err != nil {
		return nil, eris.Wrap(err, "report: load series rows")
	}
	dim := opts.Dimension
	if dim == "" {
		dim = models.DimensionQuery
	}
	return metrics.KeywordSeries(filter.Apply(recs, dim), opts), nil
}
