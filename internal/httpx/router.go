package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
	"github.com/AngelCh415/GSC_GO/internal/ingest"
	"github.com/AngelCh415/GSC_GO/internal/metrics"
	"github.com/AngelCh415/GSC_GO/internal/models"
	"github.com/AngelCh415/GSC_GO/internal/observability"
	"github.com/AngelCh415/GSC_GO/internal/report"
	"github.com/AngelCh415/GSC_GO/internal/utils"
)

// Deps are the collaborators the router serves. ETL may be nil when no
// reporting API is configured.
type Deps struct {
	Log            *zap.Logger
	ETL            *ingest.ETL
	Reports        *report.Service
	Metrics        *observability.Metrics
	AllowedOrigins []string
	DefaultTopN    int
}

type handlers struct{ Deps }

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = observability.New()
	}
	if d.DefaultTopN == 0 {
		d.DefaultTopN = report.DefaultTopN
	}
	h := handlers{d}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(d.Log))
	mux.Use(h.instrument)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", d.Metrics.Handler())

	mux.Post("/ingest/run", h.ingestRun)
	mux.Get("/report", h.report)
	mux.Get("/top", h.top)
	mux.Get("/keywords/series", h.series)
	return mux
}

func (h handlers) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &utils.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		h.Metrics.ObserveHTTP(r.Method, route, rec.Status, time.Since(start))
	})
}

func (h handlers) ingestRun(w http.ResponseWriter, r *http.Request) {
	if h.ETL == nil {
		h.fail(w, r, http.StatusServiceUnavailable, apperr.Configuration("reporting api not configured"))
		return
	}
	q := r.URL.Query()
	p, err := metrics.ParsePeriod("ingest", q.Get("from"), q.Get("to"))
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	res, err := h.ETL.Run(r.Context(), p.Start, p.End)
	if err != nil {
		h.fail(w, r, statusFor(err, http.StatusBadGateway), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type reportResponse struct {
	P1       string           `json:"p1"`
	P2       string           `json:"p2"`
	Dropped  int              `json:"dropped"`
	Sections []report.Section `json:"sections"`
}

func (h handlers) report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p1, p2, err := periods(q.Get("p1"), q.Get("p2"))
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	top, err := intParam(q.Get("top"), h.DefaultTopN)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	rep, err := h.Reports.Report(r.Context(), p1, p2, report.Options{TopN: top, Subdomains: listParam(q["subdomain"])})
	if err != nil {
		h.fail(w, r, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{
		P1:       rep.P1.String(),
		P2:       rep.P2.String(),
		Dropped:  rep.Dropped,
		Sections: rep.Sections(),
	})
}

func (h handlers) top(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p1, p2, err := periods(q.Get("p1"), q.Get("p2"))
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	opts, err := rankOptions(q.Get("dimension"), q.Get("metric"), q.Get("order"), q.Get("n"), h.DefaultTopN)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	opts.PagePatterns = listParam(q["subdomain"])
	rows, err := h.Reports.Top(r.Context(), p1, p2, opts)
	if err != nil {
		h.fail(w, r, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h handlers) series(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	gran, err := metrics.ParseGranularity(q.Get("granularity"))
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	opts := metrics.SeriesOptions{
		Dimension:   models.Dimension(q.Get("dimension")),
		Keyword:     q.Get("keyword"),
		Exact:       q.Get("exact") == "true",
		Granularity: gran,
	}
	if opts.Dimension != "" && !opts.Dimension.Valid() {
		h.fail(w, r, http.StatusBadRequest, apperr.Configuration("invalid dimension %q", opts.Dimension))
		return
	}
	if q.Get("from") != "" || q.Get("to") != "" {
		p, err := metrics.ParsePeriod("series", q.Get("from"), q.Get("to"))
		if err != nil {
			h.fail(w, r, http.StatusBadRequest, err)
			return
		}
		opts.From, opts.To = p.Start, p.End
	}
	filter := metrics.EntityFilter{ExcludeAny: listParam(q["exclude"])}
	points, err := h.Reports.Series(r.Context(), opts, filter)
	if err != nil {
		h.fail(w, r, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func periods(s1, s2 string) (models.Period, models.Period, error) {
	p1, err := metrics.ParsePeriodSpec("p1", s1)
	if err != nil {
		return models.Period{}, models.Period{}, err
	}
	p2, err := metrics.ParsePeriodSpec("p2", s2)
	if err != nil {
		return models.Period{}, models.Period{}, err
	}
	return p1, p2, nil
}

func rankOptions(dim, metric, order, n string, defN int) (metrics.RankOptions, error) {
	opts := metrics.RankOptions{Dimension: models.Dimension(dim), Metric: models.Metric(metric)}
	if opts.Dimension == "" {
		opts.Dimension = models.DimensionQuery
	}
	if !opts.Dimension.Valid() {
		return opts, apperr.Configuration("invalid dimension %q", dim)
	}
	if opts.Metric == "" {
		opts.Metric = models.MetricClicks
	}
	if !opts.Metric.Valid() {
		return opts, apperr.Configuration("invalid metric %q", metric)
	}
	o, err := metrics.ParseRankOrder(order)
	if err != nil {
		return opts, err
	}
	opts.Order = o
	opts.N, err = intParam(n, defN)
	return opts, err
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Configuration("expected an integer, got %q", s)
	}
	return n, nil
}

// listParam accepts repeated parameters and comma separated values.
func listParam(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func statusFor(err error, def int) int {
	if apperr.IsClient(err) {
		return http.StatusBadRequest
	}
	return def
}

func (h handlers) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= 500 {
		h.Log.Error("request failed", zap.String("rid", utils.RID(r.Context())), zap.Error(err))
	}
	writeJSON(w, status, map[string]any{"error": err.Error(), "request_id": utils.RID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
