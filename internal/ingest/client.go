package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/AngelCh415/GSC_GO/internal/models"
	"github.com/AngelCh415/GSC_GO/internal/observability"
	"github.com/AngelCh415/GSC_GO/internal/utils"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

// Dimensions requested from the reporting API, in response key order.
var Dimensions = []string{models.ColQuery, models.ColPage, models.ColDate, models.ColDevice, models.ColCountry}

const (
	DefaultRowLimit       = 25000
	DefaultRetentionMonth = 16
)

type ExtractorConfig struct {
	BaseURL           string
	Site              string
	Token             string
	RowLimit          int
	RequestsPerSecond float64
	MaxRetries        int
	RetryBase         time.Duration
	RetentionMonths   int
}

// Extractor pulls daily rows from a search analytics reporting API.
type Extractor struct {
	c       HTTPClient
	cfg     ExtractorConfig
	limiter *rate.Limiter
	backoff utils.Backoff
	log     *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

type ExtractorOption func(*Extractor)

func WithMetrics(m *observability.Metrics) ExtractorOption {
	return func(x *Extractor) { x.metrics = m }
}

// WithClock fixes the time used to evaluate the retention window.
func WithClock(now func() time.Time) ExtractorOption {
	return func(x *Extractor) { x.now = now }
}

func NewExtractor(c HTTPClient, cfg ExtractorConfig, log *zap.Logger, opts ...ExtractorOption) (*Extractor, error) {
	if cfg.BaseURL == "" || cfg.Site == "" {
		return nil, eris.New("extractor: base url and site are required")
	}
	if cfg.RowLimit <= 0 {
		cfg.RowLimit = DefaultRowLimit
	}
	if cfg.RetentionMonths <= 0 {
		cfg.RetentionMonths = DefaultRetentionMonth
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 100 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if log == nil {
		log = zap.NewNop()
	}
	x := &Extractor{
		c:       c,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		backoff: utils.NewBackoff(cfg.RetryBase, cfg.MaxRetries),
		log:     log,
		now:     time.Now,
	}
	for _, o := range opts {
		o(x)
	}
	return x, nil
}

type queryRequest struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	RowLimit   int      `json:"rowLimit"`
	StartRow   int      `json:"startRow"`
}

type queryResponse struct {
	Rows []struct {
		Keys        []string `json:"keys"`
		Clicks      float64  `json:"clicks"`
		Impressions float64  `json:"impressions"`
		CTR         float64  `json:"ctr"`
		Position    float64  `json:"position"`
	} `json:"rows"`
}

// InRetention reports whether the month starting at first is still served
// by the API.
func (x *Extractor) InRetention(year int, month time.Month) bool {
	now := models.Day(x.now())
	oldest := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -x.cfg.RetentionMonths, 0)
	return !time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Before(oldest)
}

// FetchMonth returns every row of one calendar month. Months past the
// retention window yield nothing.
func (x *Extractor) FetchMonth(ctx context.Context, year int, month time.Month) ([]models.Record, error) {
	if !x.InRetention(year, month) {
		x.log.Info("month outside retention window, skipped", zap.Int("year", year), zap.Int("month", int(month)))
		return nil, nil
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return x.Fetch(ctx, start, start.AddDate(0, 1, -1))
}

// Fetch pages through [from, to] until the API returns a short page.
func (x *Extractor) Fetch(ctx context.Context, from, to time.Time) ([]models.Record, error) {
	var out []models.Record
	for startRow := 0; ; {
		body := queryRequest{
			StartDate:  from.Format("2006-01-02"),
			EndDate:    to.Format("2006-01-02"),
			Dimensions: Dimensions,
			RowLimit:   x.cfg.RowLimit,
			StartRow:   startRow,
		}
		var resp queryResponse
		if err := x.postWithRetry(ctx, body, &resp); err != nil {
			return nil, eris.Wrapf(err, "extractor: %s..%s from row %d", body.StartDate, body.EndDate, startRow)
		}
		for _, r := range resp.Rows {
			out = append(out, toRecord(r.Keys, r.Clicks, r.Impressions, r.CTR, r.Position))
		}
		x.log.Debug("page fetched", zap.String("start", body.StartDate), zap.Int("start_row", startRow), zap.Int("rows", len(resp.Rows)))
		if len(resp.Rows) < x.cfg.RowLimit {
			return out, nil
		}
		startRow += len(resp.Rows)
	}
}

func toRecord(keys []string, clicks, impressions, ctr, position float64) models.Record {
	key := func(i int) string {
		if i < len(keys) {
			return strings.TrimSpace(keys[i])
		}
		return ""
	}
	return models.Record{
		Query:       key(0),
		Page:        key(1),
		Date:        parseDate(key(2)),
		Device:      key(3),
		Country:     key(4),
		Clicks:      int(clicks),
		Impressions: int(impressions),
		CTR:         ctr,
		Position:    position,
	}
}

func (x *Extractor) endpoint() string {
	return strings.TrimRight(x.cfg.BaseURL, "/") + "/sites/" + url.PathEscape(x.cfg.Site) + "/searchAnalytics/query"
}

// postWithRetry retries transport errors, 429 and 5xx. Other statuses fail
// at once.
func (x *Extractor) postWithRetry(ctx context.Context, body queryRequest, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "extractor: marshal request")
	}
	return x.backoff.Do(ctx, func(attempt int) error {
		if err := x.limiter.Wait(ctx); err != nil {
			return utils.Permanent(eris.Wrap(err, "extractor: rate limiter"))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.endpoint(), bytes.NewReader(payload))
		if err != nil {
			return utils.Permanent(eris.Wrap(err, "extractor: build request"))
		}
		req.Header.Set("Content-Type", "application/json")
		if x.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+x.cfg.Token)
		}
		resp, err := x.c.Do(req)
		if err != nil {
			x.count("transport_error")
			x.log.Warn("extractor request failed", zap.Int("attempt", attempt), zap.Error(err))
			if ctx.Err() != nil {
				return utils.Permanent(err)
			}
			return eris.Wrap(err, "extractor: transport")
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			x.count("ok")
			return utils.Permanent(eris.Wrap(json.NewDecoder(resp.Body).Decode(dst), "extractor: decode response"))
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		statusErr := eris.Errorf("extractor: non-2xx: %d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			x.count("retryable_status")
			x.log.Warn("extractor retryable status", zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode))
			return statusErr
		}
		x.count("client_error")
		return utils.Permanent(statusErr)
	})
}

func (x *Extractor) count(outcome string) {
	if x.metrics != nil {
		x.metrics.ExtractCalls.WithLabelValues(outcome).Inc()
	}
}
