package metrics

import (
	"sort"

	"github.com/AngelCh415/GSC_GO/internal/category"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

// CategoryDistribution reports clicks and impressions per label (configured
// groups plus non_branded) with each label's share of the subset's total
// clicks. Membership is not exclusive, so shares may add up past 100.
func CategoryDistribution(records []models.Record, dim models.Dimension, m *category.Matcher) []models.DistributionRow {
	sum := SummarizeByCategory(records, dim, m, "")
	total := float64(sum.Get(category.LabelTotal).Clicks)
	labels := append(m.GroupNames(), category.LabelNonBranded)
	rows := make([]models.DistributionRow, 0, len(labels))
	for _, l := range labels {
		a := sum.Get(l)
		rows = append(rows, distributionRow(l, a.Clicks, a.Impressions, total))
	}
	return rows
}

// SubdomainDistribution groups page records by hostname, largest first.
// Records without a parseable host are left out.
func SubdomainDistribution(records []models.Record) []models.DistributionRow {
	type acc struct{ clicks, impressions int }
	byHost := map[string]*acc{}
	total := 0
	for _, r := range records {
		h := category.Hostname(r.Page)
		if h == "" {
			continue
		}
		a, ok := byHost[h]
		if !ok {
			a = &acc{}
			byHost[h] = a
		}
		a.clicks += r.Clicks
		a.impressions += r.Impressions
		total += r.Clicks
	}
	rows := make([]models.DistributionRow, 0, len(byHost))
	for h, a := range byHost {
		rows = append(rows, distributionRow(h, a.clicks, a.impressions, float64(total)))
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Clicks != rows[j].Clicks {
			return rows[i].Clicks > rows[j].Clicks
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

// PatternDistribution aggregates the records whose page contains each
// pattern, in pattern order. A record may count toward several patterns.
func PatternDistribution(records []models.Record, patterns []string) []models.Aggregate {
	accs := make([]Accumulator, len(patterns))
	idx := make(map[string]int, len(patterns))
	for i, p := range patterns {
		idx[p] = i
	}
	for _, r := range records {
		for _, p := range category.MatchPatterns(r.Page, patterns) {
			accs[idx[p]].Add(r)
		}
	}
	out := make([]models.Aggregate, len(patterns))
	for i, p := range patterns {
		out[i] = accs[i].Aggregate(p, "")
	}
	return out
}

func distributionRow(key string, clicks, impressions int, total float64) models.DistributionRow {
	return models.DistributionRow{
		Key:            key,
		Clicks:         clicks,
		Impressions:    impressions,
		ShareClicksPct: round2p(share(float64(clicks), total)),
	}
}

// MergedRow joins a distribution key across two periods.
type MergedRow struct {
	Key         string
	Clicks      models.Variation
	Impressions models.Variation
}

// Totals are the period totals shares are computed against.
type Totals struct {
	ClicksIni, ClicksFin           float64
	ImpressionsIni, ImpressionsFin float64
}

// TotalsOf takes totals from two aggregates.
func TotalsOf(ini, fin models.Aggregate) Totals {
	return Totals{
		ClicksIni:      float64(ini.Clicks),
		ClicksFin:      float64(fin.Clicks),
		ImpressionsIni: float64(ini.Impressions),
		ImpressionsFin: float64(fin.Impressions),
	}
}

// MergeDistributions outer-joins two distributions of exclusive buckets on
// key; shares are taken against the sum of each side's rows.
func MergeDistributions(p1, p2 []models.DistributionRow) []MergedRow {
	var t Totals
	for _, r := range p1 {
		t.ClicksIni += float64(r.Clicks)
		t.ImpressionsIni += float64(r.Impressions)
	}
	for _, r := range p2 {
		t.ClicksFin += float64(r.Clicks)
		t.ImpressionsFin += float64(r.Impressions)
	}
	return MergeDistributionsWithTotals(p1, p2, t)
}

// MergeDistributionsWithTotals outer-joins two distributions on key using
// explicit period totals, for overlapping buckets such as categories. Keys
// keep the order of first appearance (p1 first, then new p2 keys).
func MergeDistributionsWithTotals(p1, p2 []models.DistributionRow, t Totals) []MergedRow {
	var keys []string
	ini := map[string]models.DistributionRow{}
	fin := map[string]models.DistributionRow{}
	for _, r := range p1 {
		if _, ok := ini[r.Key]; !ok {
			keys = append(keys, r.Key)
		}
		ini[r.Key] = r
	}
	for _, r := range p2 {
		_, inP1 := ini[r.Key]
		_, inP2 := fin[r.Key]
		if !inP1 && !inP2 {
			keys = append(keys, r.Key)
		}
		fin[r.Key] = r
	}
	rows := make([]MergedRow, 0, len(keys))
	for _, k := range keys {
		a, b := ini[k], fin[k]
		rows = append(rows, MergedRow{
			Key:         k,
			Clicks:      CompareShare(float64(a.Clicks), float64(b.Clicks), t.ClicksIni, t.ClicksFin),
			Impressions: CompareShare(float64(a.Impressions), float64(b.Impressions), t.ImpressionsIni, t.ImpressionsFin),
		})
	}
	return rows
}
