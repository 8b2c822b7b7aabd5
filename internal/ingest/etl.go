package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
	"github.com/AngelCh415/GSC_GO/internal/models"
	"github.com/AngelCh415/GSC_GO/internal/observability"
	"github.com/AngelCh415/GSC_GO/internal/store"
)

// MonthFetcher is satisfied by Extractor.
type MonthFetcher interface {
	FetchMonth(ctx context.Context, year int, month time.Month) ([]models.Record, error)
}

type ETL struct {
	f       MonthFetcher
	st      store.Store
	log     *zap.Logger
	metrics *observability.Metrics
}

func NewETL(f MonthFetcher, st store.Store, log *zap.Logger, m *observability.Metrics) *ETL {
	if log == nil {
		log = zap.NewNop()
	}
	return &ETL{f: f, st: st, log: log, metrics: m}
}

// RunResult summarizes one ETL run.
type RunResult struct {
	Months  int `json:"months"`
	Fetched int `json:"fetched"`
	Added   int `json:"added"`
}

// Run fetches [from, to] month by month into the store. Rows already stored
// are overwritten in place, so reruns over the same range add nothing.
func (e *ETL) Run(ctx context.Context, from, to time.Time) (RunResult, error) {
	var res RunResult
	from, to = models.Day(from), models.Day(to)
	if to.Before(from) {
		return res, apperr.Configuration("ingest: end %s before start %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	window := models.Period{Start: from, End: to}

	for m := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !m.After(to); m = m.AddDate(0, 1, 0) {
		recs, err := e.f.FetchMonth(ctx, m.Year(), m.Month())
		if err != nil {
			return res, eris.Wrapf(err, "ingest: month %s", m.Format("2006-01"))
		}
		kept := recs[:0:0]
		for _, r := range recs {
			if window.Contains(r.Date) {
				kept = append(kept, r)
			}
		}
		added, err := e.st.Upsert(ctx, kept)
		if err != nil {
			return res, eris.Wrapf(err, "ingest: store month %s", m.Format("2006-01"))
		}
		res.Months++
		res.Fetched += len(kept)
		res.Added += added
		if e.metrics != nil {
			e.metrics.RowsIngested.WithLabelValues("api").Add(float64(added))
		}
		e.log.Info("month ingested", zap.String("month", m.Format("2006-01")), zap.Int("rows", len(kept)), zap.Int("added", added))
	}
	e.log.Info("ingest complete", zap.Int("months", res.Months), zap.Int("fetched", res.Fetched), zap.Int("added", res.Added))
	return res, nil
}
