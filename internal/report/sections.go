package report

import (
	"math"

	"github.com/AngelCh415/GSC_GO/internal/category"
	"github.com/AngelCh415/GSC_GO/internal/metrics"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

// variationCols expands a metric prefix into its comparison columns.
func variationCols(prefix string, shares bool) []string {
	cols := []string{prefix + "_ini", prefix + "_fin", prefix + "_delta", prefix + "_delta_pct"}
	if shares {
		cols = append(cols, prefix+"_share_ini_pct", prefix+"_share_fin_pct", prefix+"_share_delta_pct")
	}
	return cols
}

func variationCells(v models.Variation, shares bool) []any {
	cells := []any{v.Ini, v.Fin, v.Delta, cell(v.DeltaPct)}
	if shares {
		cells = append(cells, cell(v.ShareIniPct), cell(v.ShareFinPct), cell(v.ShareDeltaPct))
	}
	return cells
}

func cell(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func aggregateTable(labelCol string) Table {
	cols := []string{labelCol}
	cols = append(cols, variationCols("clicks", true)...)
	cols = append(cols, variationCols("impressions", true)...)
	cols = append(cols, variationCols("ctr_pct", false)...)
	cols = append(cols, variationCols("position", false)...)
	return NewTable(cols...)
}

func addAggregateRow(t *Table, av models.AggregateVariation) {
	row := []any{av.Label}
	row = append(row, variationCells(av.Clicks, true)...)
	row = append(row, variationCells(av.Impressions, true)...)
	row = append(row, variationCells(av.CTR, false)...)
	if av.Position != nil {
		row = append(row, variationCells(*av.Position, false)...)
	} else {
		row = append(row, positionOnly(av.Ini.Position), positionOnly(av.Fin.Position), nil, nil)
	}
	t.Add(row...)
}

func positionOnly(p *float64) any {
	if p == nil {
		return nil
	}
	return math.Round(*p*100) / 100
}

// generalSummary compares every label of both periods, shares taken
// against each period's total.
func generalSummary(c1, c2 metrics.CategorySummary) Table {
	t := aggregateTable("label")
	t1, t2 := c1.Get(category.LabelTotal), c2.Get(category.LabelTotal)
	for _, l := range c1.Order {
		addAggregateRow(&t, metrics.CompareAggregates(c1.Get(l), c2.Get(l), t1, t2))
	}
	return t
}

// groupComparison compares one metric per configured group.
func groupComparison(groups []string, c1, c2 metrics.CategorySummary, m models.Metric) Table {
	t := NewTable(append([]string{"group"}, variationCols(string(m), true)...)...)
	tot1 := c1.Get(category.LabelTotal).Value(m)
	tot2 := c2.Get(category.LabelTotal).Value(m)
	for _, g := range groups {
		v := metrics.CompareShare(c1.Get(g).Value(m), c2.Get(g).Value(m), tot1, tot2)
		t.Add(append([]any{g}, variationCells(v, true)...)...)
	}
	return t
}

func topTable(dim models.Dimension, m models.Metric, ranked []models.RankedEntity) Table {
	labelCol := "group"
	if dim == models.DimensionPage {
		labelCol = "subdomain"
	}
	t := NewTable(append([]string{string(dim), labelCol}, variationCols(string(m), false)...)...)
	for _, e := range ranked {
		t.Add(append([]any{e.Entity, e.Label}, variationCells(e.Var, false)...)...)
	}
	return t
}

func distributionTable(rows []models.DistributionRow) Table {
	t := NewTable("subdomain", "clicks", "impressions", "share_clicks_pct")
	for _, r := range rows {
		t.Add(r.Key, r.Clicks, r.Impressions, cell(r.ShareClicksPct))
	}
	return t
}

func mergedTable(keyCol string, rows []metrics.MergedRow) Table {
	cols := []string{keyCol}
	cols = append(cols, variationCols("clicks", true)...)
	cols = append(cols, variationCols("impressions", true)...)
	t := NewTable(cols...)
	for _, r := range rows {
		row := []any{r.Key}
		row = append(row, variationCells(r.Clicks, true)...)
		row = append(row, variationCells(r.Impressions, true)...)
		t.Add(row...)
	}
	return t
}

// subdomainComparison aggregates every pattern in both periods. Patterns
// absent from one period compare against zero.
func subdomainComparison(r1, r2 []models.Record, patterns []string) Table {
	a1 := metrics.PatternDistribution(r1, patterns)
	a2 := metrics.PatternDistribution(r2, patterns)
	tot1 := metrics.Summarize(category.LabelTotal, "", r1)
	tot2 := metrics.Summarize(category.LabelTotal, "", r2)
	t := aggregateTable("subdomain")
	for i := range patterns {
		addAggregateRow(&t, metrics.CompareAggregates(a1[i], a2[i], tot1, tot2))
	}
	return t
}
