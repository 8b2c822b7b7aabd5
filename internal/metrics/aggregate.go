package metrics

import (
	"strings"

	"github.com/samber/lo"

	"github.com/AngelCh415/GSC_GO/internal/category"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

// Accumulator folds records into an impression-weighted aggregate.
type Accumulator struct {
	clicks      int
	impressions int
	count       int
	ctrWeighted float64
	posWeighted float64
}

func (a *Accumulator) Add(r models.Record) {
	a.clicks += r.Clicks
	a.impressions += r.Impressions
	a.count++
	a.ctrWeighted += r.CTR * float64(r.Impressions)
	a.posWeighted += r.Position * float64(r.Impressions)
}

// Aggregate finalizes the weighted averages. CTR is 0 and position nil when
// no impressions were seen.
func (a Accumulator) Aggregate(label, period string) models.Aggregate {
	agg := models.Aggregate{
		Label:       label,
		Period:      period,
		Clicks:      a.clicks,
		Impressions: a.impressions,
		Count:       a.count,
	}
	if a.impressions > 0 {
		imp := float64(a.impressions)
		agg.CTR = a.ctrWeighted / imp
		agg.Position = ptr(a.posWeighted / imp)
	}
	return agg
}

// Summarize aggregates a record subset.
func Summarize(label, period string, records []models.Record) models.Aggregate {
	var acc Accumulator
	for _, r := range records {
		acc.Add(r)
	}
	return acc.Aggregate(label, period)
}

// CategorySummary holds one aggregate per label in report order: total,
// branded, non_branded, then the configured groups.
type CategorySummary struct {
	Order   []string
	ByLabel map[string]models.Aggregate
}

func (s CategorySummary) Get(label string) models.Aggregate { return s.ByLabel[label] }

// SummarizeByCategory classifies every record and adds it to each label it
// belongs to. Group totals therefore need not add up to the overall total.
func SummarizeByCategory(records []models.Record, dim models.Dimension, m *category.Matcher, period string) CategorySummary {
	order := append([]string{category.LabelTotal, category.LabelBranded, category.LabelNonBranded}, m.GroupNames()...)
	accs := make(map[string]*Accumulator, len(order))
	for _, l := range order {
		accs[l] = &Accumulator{}
	}
	for _, r := range records {
		accs[category.LabelTotal].Add(r)
		labels := m.Labels(r.Entity(dim))
		if !lo.Contains(labels, category.LabelNonBranded) {
			accs[category.LabelBranded].Add(r)
		}
		for _, l := range labels {
			accs[l].Add(r)
		}
	}
	out := CategorySummary{Order: order, ByLabel: make(map[string]models.Aggregate, len(order))}
	for _, l := range order {
		out.ByLabel[l] = accs[l].Aggregate(l, period)
	}
	return out
}

// EntityKey is the join identity of an entity: queries compare
// case-insensitively, page URLs keep their case.
func EntityKey(dim models.Dimension, text string) string {
	text = strings.TrimSpace(text)
	if dim == models.DimensionPage {
		return text
	}
	return strings.ToLower(text)
}

// SummarizeByEntity aggregates per distinct entity text. Records without
// entity text are ignored.
func SummarizeByEntity(records []models.Record, dim models.Dimension, period string) map[string]models.Aggregate {
	accs := map[string]*Accumulator{}
	for _, r := range records {
		k := EntityKey(dim, r.Entity(dim))
		if k == "" {
			continue
		}
		acc, ok := accs[k]
		if !ok {
			acc = &Accumulator{}
			accs[k] = acc
		}
		acc.Add(r)
	}
	out := make(map[string]models.Aggregate, len(accs))
	for k, acc := range accs {
		out[k] = acc.Aggregate(k, period)
	}
	return out
}
