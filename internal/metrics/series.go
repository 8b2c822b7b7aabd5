package metrics

import (
	"sort"
	"strings"
	"time"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
	"github.com/AngelCh415/GSC_GO/internal/category"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(s)) {
	case "", GranularityMonth:
		return GranularityMonth, nil
	case GranularityDay:
		return GranularityDay, nil
	}
	return "", apperr.Configuration("granularity must be day or month, got %q", s)
}

// SeriesOptions selects the entity and bucketing of a keyword series. An
// empty Keyword takes every record. When From or To is set, buckets missing
// between them are filled with zeros.
type SeriesOptions struct {
	Dimension   models.Dimension
	Keyword     string
	Exact       bool
	Granularity Granularity
	From, To    time.Time
}

// SeriesPoint is one time bucket of a keyword series. AvgPosition is the
// plain mean of the bucket's rows; CTR is clicks over impressions in percent.
type SeriesPoint struct {
	Period      time.Time        `json:"period"`
	Clicks      int              `json:"clicks"`
	Impressions int              `json:"impressions"`
	AvgPosition *float64         `json:"avg_position"`
	CTR         *float64         `json:"ctr_pct"`
	ClicksVar   models.Variation `json:"clicks_variation"`      // vs. previous bucket
	ImprVar     models.Variation `json:"impressions_variation"` // vs. previous bucket
}

// KeywordSeries summarizes one keyword (or everything) over time.
func KeywordSeries(records []models.Record, opts SeriesOptions) []SeriesPoint {
	dim := opts.Dimension
	if dim == "" {
		dim = models.DimensionQuery
	}
	gran := opts.Granularity
	if gran == "" {
		gran = GranularityMonth
	}
	kw := category.Normalize(opts.Keyword)

	type bucket struct {
		clicks, impressions, n int
		posSum                 float64
	}
	buckets := map[time.Time]*bucket{}
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		if kw != "" {
			text := category.Normalize(r.Entity(dim))
			if opts.Exact && text != kw || !opts.Exact && !strings.Contains(text, kw) {
				continue
			}
		}
		k := truncate(r.Date, gran)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
		}
		b.clicks += r.Clicks
		b.impressions += r.Impressions
		b.posSum += r.Position
		b.n++
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	if len(keys) > 0 && (!opts.From.IsZero() || !opts.To.IsZero()) {
		start, end := keys[0], keys[len(keys)-1]
		if !opts.From.IsZero() {
			start = truncate(opts.From, gran)
		}
		if !opts.To.IsZero() {
			end = truncate(opts.To, gran)
		}
		keys = keys[:0]
		for t := start; !t.After(end); t = next(t, gran) {
			keys = append(keys, t)
		}
	}

	out := make([]SeriesPoint, 0, len(keys))
	var prev SeriesPoint
	for i, k := range keys {
		p := SeriesPoint{Period: k}
		if b, ok := buckets[k]; ok {
			p.Clicks = b.clicks
			p.Impressions = b.impressions
			p.AvgPosition = round2p(safeDiv(b.posSum, float64(b.n)))
			p.CTR = round2p(safeDiv(float64(b.clicks)*100, float64(b.impressions)))
		}
		if i > 0 {
			p.ClicksVar = Compare(float64(prev.Clicks), float64(p.Clicks))
			p.ImprVar = Compare(float64(prev.Impressions), float64(p.Impressions))
		} else {
			p.ClicksVar = models.Variation{Ini: float64(p.Clicks), Fin: float64(p.Clicks)}
			p.ImprVar = models.Variation{Ini: float64(p.Impressions), Fin: float64(p.Impressions)}
		}
		out = append(out, p)
		prev = p
	}
	return out
}

func truncate(t time.Time, g Granularity) time.Time {
	d := models.Day(t)
	if g == GranularityMonth {
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return d
}

func next(t time.Time, g Granularity) time.Time {
	if g == GranularityMonth {
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}
