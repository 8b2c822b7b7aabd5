package metrics

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
	"github.com/AngelCh415/GSC_GO/internal/category"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

// RankOrder selects how entities are ordered by their delta.
type RankOrder string

const (
	OrderMagnitude RankOrder = "magnitude" // |delta| descending
	OrderGain      RankOrder = "gain"      // delta descending
	OrderLoss      RankOrder = "loss"      // delta ascending
)

func ParseRankOrder(s string) (RankOrder, error) {
	switch RankOrder(s) {
	case "", OrderMagnitude:
		return OrderMagnitude, nil
	case OrderGain, OrderLoss:
		return RankOrder(s), nil
	}
	return "", apperr.Configuration("unknown rank order %q", s)
}

// RankOptions configures TopN. Zero values rank queries by clicks magnitude.
type RankOptions struct {
	Dimension    models.Dimension
	Metric       models.Metric
	N            int
	Order        RankOrder
	Matcher      *category.Matcher // optional, labels query rows with their first group
	PagePatterns []string          // optional, keep only rows whose page matches one pattern
}

// TopN joins per-entity aggregates of both periods (full outer join, the
// missing side counts as 0) and returns the n entities with the largest
// variation. Ties go to the larger period-2 value, then to the smaller
// entity text.
func TopN(p1, p2 []models.Record, opts RankOptions) []models.RankedEntity {
	if opts.N <= 0 {
		return []models.RankedEntity{}
	}
	dim := lo.Ternary(opts.Dimension == "", models.DimensionQuery, opts.Dimension)
	metric := lo.Ternary(opts.Metric == "", models.MetricClicks, opts.Metric)

	if len(opts.PagePatterns) > 0 {
		p1 = filterPages(p1, opts.PagePatterns)
		p2 = filterPages(p2, opts.PagePatterns)
	}
	ini := SummarizeByEntity(p1, dim, "p1")
	fin := SummarizeByEntity(p2, dim, "p2")

	type candidate struct {
		models.RankedEntity
		delta, fin float64
	}
	keys := lo.Union(lo.Keys(ini), lo.Keys(fin))
	cands := make([]candidate, 0, len(keys))
	for _, k := range keys {
		a, b := rankValue(ini[k], metric), rankValue(fin[k], metric)
		cands = append(cands, candidate{
			RankedEntity: models.RankedEntity{
				Entity: k,
				Label:  entityLabel(dim, k, opts.Matcher),
				Metric: metric,
				Var:    Compare(a, b),
			},
			delta: b - a,
			fin:   b,
		})
	}

	// order on unrounded values; Var is rounded for output only
	key := rankKey(lo.Ternary(opts.Order == "", OrderMagnitude, opts.Order))
	sort.Slice(cands, func(i, j int) bool {
		ki, kj := key(cands[i].delta), key(cands[j].delta)
		if ki != kj {
			return ki > kj
		}
		if cands[i].fin != cands[j].fin {
			return cands[i].fin > cands[j].fin
		}
		return cands[i].Entity < cands[j].Entity
	})
	ranked := lo.Map(cands, func(c candidate, _ int) models.RankedEntity { return c.RankedEntity })
	if len(ranked) > opts.N {
		ranked = ranked[:opts.N]
	}
	return ranked
}

// rankValue is the compared value of one entity. CTR is ranked in percent
// points, as in the report tables.
func rankValue(a models.Aggregate, m models.Metric) float64 {
	if m == models.MetricCTR {
		return a.CTR * 100
	}
	return a.Value(m)
}

func rankKey(o RankOrder) func(float64) float64 {
	switch o {
	case OrderGain:
		return func(d float64) float64 { return d }
	case OrderLoss:
		return func(d float64) float64 { return -d }
	default:
		return math.Abs
	}
}

func entityLabel(dim models.Dimension, entity string, m *category.Matcher) string {
	if dim == models.DimensionPage {
		return category.Hostname(entity)
	}
	if m == nil {
		return ""
	}
	return m.FirstGroup(entity)
}

func filterPages(records []models.Record, patterns []string) []models.Record {
	return lo.Filter(records, func(r models.Record, _ int) bool {
		return len(category.MatchPatterns(r.Page, patterns)) > 0
	})
}
