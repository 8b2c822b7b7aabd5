package models

import (
	"strings"
	"time"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
)

// Column names understood by the loaders and the report engine.
const (
	ColQuery       = "query"
	ColPage        = "page"
	ColDate        = "date"
	ColDevice      = "device"
	ColCountry     = "country"
	ColClicks      = "clicks"
	ColImpressions = "impressions"
	ColCTR         = "ctr"
	ColPosition    = "position"
)

// MetricColumns must be present in any table handed to the engine.
var MetricColumns = []string{ColDate, ColClicks, ColImpressions, ColCTR, ColPosition}

// Record is one search-console style observation: a query/page pair on a day.
type Record struct {
	Query       string
	Page        string
	Date        time.Time // zero when the source date was missing or unparseable
	Device      string
	Country     string
	Clicks      int
	Impressions int
	CTR         float64
	Position    float64
}

// Entity returns the text the record carries for the given dimension.
func (r Record) Entity(dim Dimension) string {
	if dim == DimensionPage {
		return r.Page
	}
	return r.Query
}

// Key identifies a record for idempotent upserts.
func (r Record) Key() string {
	return r.Date.Format("2006-01-02") + "|" + r.Query + "|" + r.Page + "|" + r.Device + "|" + r.Country
}

// Table is a loaded record set plus the columns its source actually had.
type Table struct {
	Columns map[string]struct{}
	Records []Record
	Skipped int // rows the loader could not parse
}

func NewTable(cols []string, recs []Record) Table {
	t := Table{Columns: make(map[string]struct{}, len(cols)), Records: recs}
	for _, c := range cols {
		t.Columns[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	return t
}

func (t Table) Has(col string) bool {
	_, ok := t.Columns[col]
	return ok
}

// Missing lists the requested columns the table does not carry, in order.
func (t Table) Missing(cols ...string) []string {
	var out []string
	for _, c := range cols {
		if !t.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Require fails with a data shape error naming every absent column.
func (t Table) Require(cols ...string) error {
	if missing := t.Missing(cols...); len(missing) > 0 {
		return apperr.MissingColumns(missing)
	}
	return nil
}

// Append concatenates another table, unioning the column sets.
func (t Table) Append(o Table) Table {
	if t.Columns == nil {
		t.Columns = map[string]struct{}{}
	}
	for c := range o.Columns {
		t.Columns[c] = struct{}{}
	}
	t.Records = append(t.Records, o.Records...)
	t.Skipped += o.Skipped
	return t
}

type Dimension string

const (
	DimensionQuery Dimension = "query"
	DimensionPage  Dimension = "page"
)

// Plural is used for section and file names ("queries", "pages").
func (d Dimension) Plural() string {
	if d == DimensionPage {
		return "pages"
	}
	return "queries"
}

func (d Dimension) Valid() bool { return d == DimensionQuery || d == DimensionPage }

type Metric string

const (
	MetricClicks      Metric = "clicks"
	MetricImpressions Metric = "impressions"
	MetricCTR         Metric = "ctr"
	MetricPosition    Metric = "position"
)

func (m Metric) Valid() bool {
	switch m {
	case MetricClicks, MetricImpressions, MetricCTR, MetricPosition:
		return true
	}
	return false
}

// Period is a closed calendar-day interval.
type Period struct {
	Label string
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the period, both ends inclusive.
func (p Period) Contains(d time.Time) bool {
	day := Day(d)
	return !day.Before(Day(p.Start)) && !day.After(Day(p.End))
}

func (p Period) String() string {
	return p.Start.Format("2006-01-02") + ".." + p.End.Format("2006-01-02")
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Aggregate summarizes a record subset for one label and period.
type Aggregate struct {
	Label       string   `json:"label"`
	Period      string   `json:"period"`
	Clicks      int      `json:"clicks"`
	Impressions int      `json:"impressions"`
	CTR         float64  `json:"ctr"`
	Position    *float64 `json:"position"` // nil without impressions
	Count       int      `json:"count"`
}

// Value returns the aggregate's value for a metric. An undefined position
// reads as 0.
func (a Aggregate) Value(m Metric) float64 {
	switch m {
	case MetricImpressions:
		return float64(a.Impressions)
	case MetricCTR:
		return a.CTR
	case MetricPosition:
		if a.Position == nil {
			return 0
		}
		return *a.Position
	default:
		return float64(a.Clicks)
	}
}

// Variation compares one value across two periods. Nil pointers mean the
// figure is undefined (zero denominator).
type Variation struct {
	Ini           float64  `json:"value_ini"`
	Fin           float64  `json:"value_fin"`
	Delta         float64  `json:"delta"`
	DeltaPct      *float64 `json:"delta_pct"`
	ShareIniPct   *float64 `json:"share_ini_pct"`
	ShareFinPct   *float64 `json:"share_fin_pct"`
	ShareDeltaPct *float64 `json:"share_delta_pct"`
}

// AggregateVariation applies the scalar rule to every metric of two aggregates.
type AggregateVariation struct {
	Label       string     `json:"label"`
	Ini         Aggregate  `json:"ini"`
	Fin         Aggregate  `json:"fin"`
	Clicks      Variation  `json:"clicks"`
	Impressions Variation  `json:"impressions"`
	CTR         Variation  `json:"ctr"`
	Position    *Variation `json:"position"` // nil unless both positions are defined
}

// RankedEntity is one query or page in a top-N variation table.
type RankedEntity struct {
	Entity string    `json:"entity"`
	Label  string    `json:"label"`
	Metric Metric    `json:"metric"`
	Var    Variation `json:"variation"`
}

// DistributionRow is one bucket of a traffic distribution.
type DistributionRow struct {
	Key            string   `json:"key"`
	Clicks         int      `json:"clicks"`
	Impressions    int      `json:"impressions"`
	ShareClicksPct *float64 `json:"share_clicks_pct"`
}
