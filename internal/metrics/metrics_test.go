package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
	"github.com/AngelCh415/GSC_GO/internal/category"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func rec(query, date string, clicks, impressions int, ctr, pos float64) models.Record {
	return models.Record{Query: query, Date: day(date), Clicks: clicks, Impressions: impressions, CTR: ctr, Position: pos}
}

func mustPeriod(t *testing.T, label, start, end string) models.Period {
	t.Helper()
	p, err := ParsePeriod(label, start, end)
	require.NoError(t, err)
	return p
}

func tbkMatcher(t *testing.T) *category.Matcher {
	t.Helper()
	cfg, err := category.NewConfig("transbank", []category.Rule{{Name: "tbk", Terms: []string{"transbank"}, Brand: true}}, nil, nil)
	require.NoError(t, err)
	return category.NewMatcher(cfg)
}

// --- WindowFilter ---

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriodSpec("p1", "2026-01-17,2026-01-23")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-17..2026-01-23", p.String())

	_, err = ParsePeriodSpec("p2", "2026-01-24..2026-01-30")
	require.NoError(t, err)

	for _, bad := range [][2]string{{"2026-13-01", "2026-01-02"}, {"2026-01-05", "2026-01-01"}, {"", "2026-01-01"}} {
		_, err := ParsePeriod("p", bad[0], bad[1])
		assert.True(t, apperr.IsConfiguration(err), bad)
	}
	_, err = ParsePeriodSpec("p", "2026-01-01")
	assert.True(t, apperr.IsConfiguration(err))
}

func TestSelect_InclusiveAndDropped(t *testing.T) {
	records := []models.Record{
		rec("a", "2026-01-16", 1, 1, 0, 1),
		rec("b", "2026-01-17", 1, 1, 0, 1),
		rec("c", "2026-01-23", 1, 1, 0, 1),
		rec("d", "2026-01-24", 1, 1, 0, 1),
		{Query: "no date", Clicks: 9},
	}
	sel := Select(records, mustPeriod(t, "p1", "2026-01-17", "2026-01-23"))
	require.Len(t, sel.Records, 2)
	assert.Equal(t, "b", sel.Records[0].Query)
	assert.Equal(t, "c", sel.Records[1].Query)
	assert.Equal(t, 1, sel.Dropped)

	empty := Select(records, mustPeriod(t, "p", "2025-01-01", "2025-01-31"))
	assert.Empty(t, empty.Records)
	agg := Summarize("total", "p", empty.Records)
	assert.Equal(t, 0, agg.Clicks)
	assert.Equal(t, 0.0, agg.CTR)
	assert.Nil(t, agg.Position)
}

// --- Aggregator ---

func TestSummarize_Weighted(t *testing.T) {
	records := []models.Record{
		rec("a", "2026-01-01", 10, 100, 0.10, 2),
		rec("b", "2026-01-01", 5, 300, 0.0166, 6),
		rec("c", "2026-01-01", 0, 0, 0, 50),
	}
	agg := Summarize("total", "p1", records)
	assert.Equal(t, 15, agg.Clicks)
	assert.Equal(t, 400, agg.Impressions)
	assert.Equal(t, 3, agg.Count)
	assert.InDelta(t, (0.10*100+0.0166*300)/400, agg.CTR, 1e-9)
	require.NotNil(t, agg.Position)
	assert.InDelta(t, 5.0, *agg.Position, 1e-9)
}

func TestSummarize_ClicksEqualPlainSum(t *testing.T) {
	records := []models.Record{
		rec("a", "2026-01-01", 3, 10, 0.3, 1),
		rec("b", "2026-01-02", 7, 20, 0.35, 2),
		rec("c", "2026-01-03", 11, 0, 0, 3),
	}
	manual := 0
	for _, r := range records {
		manual += r.Clicks
	}
	assert.Equal(t, manual, Summarize("x", "p", records).Clicks)
}

func TestSummarizeByCategory_MultiMembership(t *testing.T) {
	cfg, err := category.NewConfig("c", []category.Rule{
		{Name: "tbk", Terms: []string{"transbank"}, Brand: true},
		{Name: "webpay", Terms: []string{"webpay"}, Brand: true},
		{Name: "empty", Brand: true},
	}, nil, nil)
	require.NoError(t, err)
	m := category.NewMatcher(cfg)

	records := []models.Record{
		rec("transbank webpay", "2026-01-01", 10, 100, 0.1, 1),
		rec("webpay", "2026-01-01", 5, 50, 0.1, 1),
		rec("zapatos", "2026-01-01", 2, 20, 0.1, 1),
	}
	s := SummarizeByCategory(records, models.DimensionQuery, m, "p1")
	assert.Equal(t, []string{"total", "branded", "non_branded", "tbk", "webpay", "empty"}, s.Order)
	assert.Equal(t, 17, s.Get("total").Clicks)
	assert.Equal(t, 15, s.Get("branded").Clicks)
	assert.Equal(t, 2, s.Get("non_branded").Clicks)
	assert.Equal(t, 10, s.Get("tbk").Clicks)
	assert.Equal(t, 15, s.Get("webpay").Clicks)
	assert.Equal(t, 0, s.Get("empty").Clicks)
	assert.Nil(t, s.Get("empty").Position)
}

func TestSummarizeByCategory_TopicGroupsStayNonBranded(t *testing.T) {
	cfg, err := category.NewConfig("c", []category.Rule{
		{Name: "tbk", Terms: []string{"transbank"}, Brand: true},
		{Name: "pagos", Terms: []string{"pago"}},
	}, nil, nil)
	require.NoError(t, err)
	m := category.NewMatcher(cfg)

	records := []models.Record{
		rec("link de pago", "2026-01-01", 4, 40, 0.1, 1),
		rec("pago transbank", "2026-01-01", 6, 60, 0.1, 1),
	}
	s := SummarizeByCategory(records, models.DimensionQuery, m, "p1")
	assert.Equal(t, 10, s.Get("pagos").Clicks)
	assert.Equal(t, 4, s.Get("non_branded").Clicks)
	assert.Equal(t, 6, s.Get("branded").Clicks)
	assert.Equal(t, 6, s.Get("tbk").Clicks)
}

// --- VariationCalculator ---

func TestCompare_ZeroBase(t *testing.T) {
	v := Compare(0, 42)
	assert.Equal(t, 42.0, v.Delta)
	assert.Nil(t, v.DeltaPct)
}

func TestCompare_NoChange(t *testing.T) {
	for _, x := range []float64{1, 7.5, 1234} {
		v := Compare(x, x)
		assert.Equal(t, 0.0, v.Delta)
		require.NotNil(t, v.DeltaPct)
		assert.Equal(t, 0.0, *v.DeltaPct)
	}
}

func TestCompare_Rounding(t *testing.T) {
	v := Compare(3, 4)
	require.NotNil(t, v.DeltaPct)
	assert.Equal(t, 33.33, *v.DeltaPct)

	neg := Compare(-10, 5)
	require.NotNil(t, neg.DeltaPct)
	assert.Equal(t, 150.0, *neg.DeltaPct)
}

func TestCompareShare(t *testing.T) {
	v := CompareShare(25, 30, 100, 60)
	require.NotNil(t, v.ShareIniPct)
	require.NotNil(t, v.ShareFinPct)
	require.NotNil(t, v.ShareDeltaPct)
	assert.Equal(t, 25.0, *v.ShareIniPct)
	assert.Equal(t, 50.0, *v.ShareFinPct)
	assert.Equal(t, 25.0, *v.ShareDeltaPct)

	zero := CompareShare(0, 5, 0, 10)
	assert.Nil(t, zero.ShareIniPct)
	assert.NotNil(t, zero.ShareFinPct)
	assert.Nil(t, zero.ShareDeltaPct)
	assert.Nil(t, zero.DeltaPct)
}

func TestCompareAggregates_PositionUndefined(t *testing.T) {
	ini := Summarize("x", "p1", nil)
	fin := Summarize("x", "p2", []models.Record{rec("a", "2026-01-01", 1, 10, 0.1, 3)})
	av := CompareAggregates(ini, fin, ini, fin)
	assert.Nil(t, av.Position)
	assert.Equal(t, 1.0, av.Clicks.Delta)
	assert.Nil(t, av.Clicks.DeltaPct)
	assert.Equal(t, "x", av.Label)
}

// --- TopNRanker ---

func TestTopN_ZeroAndNegativeN(t *testing.T) {
	p1 := []models.Record{rec("a", "2026-01-01", 1, 1, 1, 1)}
	assert.Empty(t, TopN(p1, p1, RankOptions{N: 0}))
	assert.Empty(t, TopN(p1, p1, RankOptions{N: -3}))
	assert.NotNil(t, TopN(p1, p1, RankOptions{N: 0}))
}

func TestTopN_OnlyInPeriod2(t *testing.T) {
	p2 := []models.Record{rec("nueva query", "2026-01-25", 50, 500, 0.1, 2)}
	out := TopN(nil, p2, RankOptions{N: 5})
	require.Len(t, out, 1)
	e := out[0]
	assert.Equal(t, "nueva query", e.Entity)
	assert.Equal(t, 0.0, e.Var.Ini)
	assert.Equal(t, 50.0, e.Var.Fin)
	assert.Equal(t, 50.0, e.Var.Delta)
	assert.Nil(t, e.Var.DeltaPct)
}

func TestTopN_OrderingAndTieBreak(t *testing.T) {
	p1 := []models.Record{
		rec("lost", "2026-01-01", 30, 100, 0.3, 1),
		rec("b-tie", "2026-01-01", 10, 100, 0.1, 1),
		rec("a-tie", "2026-01-01", 10, 100, 0.1, 1),
		rec("big-fin", "2026-01-01", 0, 100, 0, 1),
		rec("steady", "2026-01-01", 5, 100, 0, 1),
	}
	p2 := []models.Record{
		rec("b-tie", "2026-01-08", 20, 100, 0.2, 1),
		rec("A-TIE", "2026-01-08", 20, 100, 0.2, 1),
		rec("big-fin", "2026-01-08", 10, 100, 0.1, 1),
		rec("steady", "2026-01-08", 5, 100, 0, 1),
	}
	out := TopN(p1, p2, RankOptions{N: 10})
	got := make([]string, len(out))
	for i, e := range out {
		got[i] = e.Entity
	}
	// lost: -30; a-tie, b-tie, big-fin: +10 (big-fin has fin 10 < 20)
	assert.Equal(t, []string{"lost", "a-tie", "b-tie", "big-fin", "steady"}, got)

	gain := TopN(p1, p2, RankOptions{N: 1, Order: OrderGain})
	require.Len(t, gain, 1)
	assert.Equal(t, "a-tie", gain[0].Entity)

	loss := TopN(p1, p2, RankOptions{N: 1, Order: OrderLoss})
	assert.Equal(t, "lost", loss[0].Entity)

	assert.Len(t, TopN(p1, p2, RankOptions{N: 2}), 2)
}

func TestTopN_CTRSmallDeltas(t *testing.T) {
	p1 := []models.Record{
		rec("aaa small", "2026-01-01", 10, 100, 0.100, 3.001),
		rec("zzz big", "2026-01-01", 10, 100, 0.100, 3.001),
	}
	p2 := []models.Record{
		rec("aaa small", "2026-01-08", 10, 100, 0.101, 3.002),
		rec("zzz big", "2026-01-08", 10, 100, 0.104, 3.004),
	}

	ctr := TopN(p1, p2, RankOptions{N: 1, Metric: models.MetricCTR})
	require.Len(t, ctr, 1)
	assert.Equal(t, "zzz big", ctr[0].Entity)
	assert.InDelta(t, 10.0, ctr[0].Var.Ini, 1e-9)
	assert.InDelta(t, 10.4, ctr[0].Var.Fin, 1e-9)
	assert.InDelta(t, 0.4, ctr[0].Var.Delta, 1e-9)
	require.NotNil(t, ctr[0].Var.DeltaPct)
	assert.InDelta(t, 4.0, *ctr[0].Var.DeltaPct, 1e-9)

	// both deltas round to 0 but the raw change still decides the order
	pos := TopN(p1, p2, RankOptions{N: 2, Metric: models.MetricPosition})
	require.Len(t, pos, 2)
	assert.Equal(t, "zzz big", pos[0].Entity)
	assert.Equal(t, "aaa small", pos[1].Entity)
}

func TestTopN_PagesAndLabels(t *testing.T) {
	m := tbkMatcher(t)
	p1 := []models.Record{
		{Query: "transbank login", Page: "https://publico.transbank.cl/a", Date: day("2026-01-01"), Clicks: 5, Impressions: 50},
		{Query: "otra", Page: "https://tienda.transbank.cl/b", Date: day("2026-01-01"), Clicks: 1, Impressions: 50},
	}
	p2 := []models.Record{
		{Query: "transbank login", Page: "https://publico.transbank.cl/a", Date: day("2026-01-08"), Clicks: 15, Impressions: 80},
		{Query: "otra", Page: "https://tienda.transbank.cl/b", Date: day("2026-01-08"), Clicks: 9, Impressions: 50},
	}

	q := TopN(p1, p2, RankOptions{N: 5, Matcher: m, PagePatterns: []string{"publico.transbank.cl"}})
	require.Len(t, q, 1)
	assert.Equal(t, "tbk", q[0].Label)

	pages := TopN(p1, p2, RankOptions{N: 5, Dimension: models.DimensionPage, Metric: models.MetricImpressions})
	require.Len(t, pages, 2)
	assert.Equal(t, "https://publico.transbank.cl/a", pages[0].Entity)
	assert.Equal(t, "publico.transbank.cl", pages[0].Label)
	assert.Equal(t, 30.0, pages[0].Var.Delta)
	assert.Equal(t, models.MetricImpressions, pages[0].Metric)
}

func TestParseRankOrder(t *testing.T) {
	o, err := ParseRankOrder("")
	require.NoError(t, err)
	assert.Equal(t, OrderMagnitude, o)
	_, err = ParseRankOrder("sideways")
	assert.True(t, apperr.IsConfiguration(err))
}

// --- end to end over the engine pieces ---

func TestEndToEnd_BrandVsNonBranded(t *testing.T) {
	m := tbkMatcher(t)
	records := []models.Record{
		rec("transbank login", "2026-01-17", 10, 100, 0.1, 2),
		rec("zapatos rojos", "2026-01-18", 5, 50, 0.1, 4),
		rec("transbank login", "2026-01-24", 20, 150, 0.13, 2),
		rec("zapatos rojos", "2026-01-25", 5, 50, 0.1, 4),
	}
	p1 := Select(records, mustPeriod(t, "p1", "2026-01-17", "2026-01-23"))
	p2 := Select(records, mustPeriod(t, "p2", "2026-01-24", "2026-01-30"))
	s1 := SummarizeByCategory(p1.Records, models.DimensionQuery, m, "p1")
	s2 := SummarizeByCategory(p2.Records, models.DimensionQuery, m, "p2")

	assert.Equal(t, 10, s1.Get("tbk").Clicks)
	assert.Equal(t, 20, s2.Get("tbk").Clicks)
	v := Compare(float64(s1.Get("tbk").Clicks), float64(s2.Get("tbk").Clicks))
	assert.Equal(t, 10.0, v.Delta)
	require.NotNil(t, v.DeltaPct)
	assert.Equal(t, 100.0, *v.DeltaPct)

	nb := Compare(float64(s1.Get(category.LabelNonBranded).Clicks), float64(s2.Get(category.LabelNonBranded).Clicks))
	assert.Equal(t, 5.0, nb.Ini)
	assert.Equal(t, 5.0, nb.Fin)
	assert.Equal(t, 0.0, nb.Delta)
	require.NotNil(t, nb.DeltaPct)
	assert.Equal(t, 0.0, *nb.DeltaPct)
}

// --- distributions, series, filters ---

func TestDistributions(t *testing.T) {
	m := tbkMatcher(t)
	records := []models.Record{
		{Query: "transbank", Page: "https://a.transbank.cl/x", Clicks: 6, Impressions: 10},
		{Query: "zapatos", Page: "https://b.transbank.cl/y", Clicks: 2, Impressions: 10},
		{Query: "otra", Page: "https://b.transbank.cl/z", Clicks: 2, Impressions: 30},
		{Query: "nohost", Page: "relative/path", Clicks: 100},
	}
	cat := CategoryDistribution(records[:3], models.DimensionQuery, m)
	require.Len(t, cat, 2)
	assert.Equal(t, "tbk", cat[0].Key)
	assert.Equal(t, 60.0, *cat[0].ShareClicksPct)
	assert.Equal(t, "non_branded", cat[1].Key)

	sub := SubdomainDistribution(records)
	require.Len(t, sub, 2)
	assert.Equal(t, "a.transbank.cl", sub[0].Key)
	assert.Equal(t, 60.0, *sub[0].ShareClicksPct)
	assert.Equal(t, 40, sub[1].Impressions)

	pat := PatternDistribution(records, []string{"b.transbank.cl", "missing.cl"})
	assert.Equal(t, 4, pat[0].Clicks)
	assert.Equal(t, 0, pat[1].Clicks)

	merged := MergeDistributions(sub, []models.DistributionRow{{Key: "c.transbank.cl", Clicks: 5}})
	require.Len(t, merged, 3)
	assert.Equal(t, "c.transbank.cl", merged[2].Key)
	assert.Nil(t, merged[2].Clicks.DeltaPct)
	assert.Equal(t, -6.0, merged[0].Clicks.Delta)
}

func TestKeywordSeries_CTRInPercent(t *testing.T) {
	records := []models.Record{rec("webpay", "2026-01-05", 69, 2000, 0, 1)}
	out := KeywordSeries(records, SeriesOptions{Keyword: "webpay", Granularity: GranularityDay})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].CTR)
	assert.Equal(t, 3.45, *out[0].CTR)
}

func TestKeywordSeries(t *testing.T) {
	records := []models.Record{
		rec("link de pago", "2026-01-05", 10, 100, 0, 3),
		rec("Link de Pago", "2026-01-20", 10, 100, 0, 5),
		rec("link de pago webpay", "2026-03-02", 4, 40, 0, 2),
		rec("otra", "2026-02-10", 99, 99, 0, 1),
	}
	exact := KeywordSeries(records, SeriesOptions{Keyword: "link de pago", Exact: true})
	require.Len(t, exact, 1)
	assert.Equal(t, 20, exact[0].Clicks)
	assert.Equal(t, 4.0, *exact[0].AvgPosition)
	assert.Equal(t, 10.0, *exact[0].CTR)

	filled := KeywordSeries(records, SeriesOptions{Keyword: "link de pago", Granularity: GranularityMonth, From: day("2026-01-01"), To: day("2026-03-31")})
	require.Len(t, filled, 3)
	assert.Equal(t, 0, filled[1].Clicks)
	assert.Nil(t, filled[1].CTR)
	assert.Equal(t, -20.0, filled[1].ClicksVar.Delta)
	assert.Nil(t, filled[2].ClicksVar.DeltaPct)
	assert.Equal(t, 4.0, filled[2].ClicksVar.Delta)

	_, err := ParseGranularity("week")
	assert.True(t, apperr.IsConfiguration(err))
}

func TestEntityFilter(t *testing.T) {
	f := EntityFilter{IncludeAny: []string{"pago", "cobro"}, IncludeAll: []string{"link"}, ExcludeAny: []string{"paypal"}}
	assert.True(t, f.Match("Link de PAGO"))
	assert.False(t, f.Match("link de pago paypal"))
	assert.False(t, f.Match("pago qr"))

	records := []models.Record{{Query: "link de cobro"}, {Query: "zapatos"}}
	assert.Len(t, f.Apply(records, models.DimensionQuery), 1)
	assert.Len(t, EntityFilter{}.Apply(records, models.DimensionQuery), 2)
}
