package report

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
	"github.com/AngelCh415/GSC_GO/internal/category"
	"github.com/AngelCh415/GSC_GO/internal/metrics"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

const DefaultTopN = 10

// Options tune a single Build call. A zero TopN means DefaultTopN; a
// negative one yields empty top tables. Subdomains, when set, replace the
// configured subdomain patterns; the patterns also restrict the top tables
// to rows on matching pages.
type Options struct {
	TopN       int
	Subdomains []string
}

// Engine builds reports for one client configuration. It is stateless
// between calls and never mutates the table it is given.
type Engine struct {
	cfg     category.Config
	matcher *category.Matcher
	log     *zap.Logger
}

type EngineOption func(*Engine)

// WithLogger sets the logger used to report omitted optional sections.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func NewEngine(cfg category.Config, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, matcher: category.NewMatcher(cfg), log: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

func (e *Engine) Matcher() *category.Matcher { return e.matcher }

// Build runs the whole analysis. Missing columns for any configured
// dimension fail the call before anything is aggregated.
func (e *Engine) Build(t models.Table, p1, p2 models.Period, opts Options) (*Report, error) {
	for _, p := range []models.Period{p1, p2} {
		if p.End.Before(p.Start) {
			return nil, apperr.Configuration("period %s: end before start", p.Label)
		}
	}
	for _, dim := range e.cfg.Dimensions {
		if err := t.Require(append([]string{string(dim)}, models.MetricColumns...)...); err != nil {
			return nil, eris.Wrapf(err, "dimension %s", dim)
		}
	}

	topN := opts.TopN
	if topN == 0 {
		topN = DefaultTopN
	}
	patterns := opts.Subdomains
	if len(patterns) == 0 {
		patterns = e.cfg.Subdomains
	}

	s1 := metrics.Select(t.Records, p1)
	s2 := metrics.Select(t.Records, p2)
	rep := New(p1, p2)
	rep.Dropped = s1.Dropped
	rep.Skipped = t.Skipped

	// top tables only keep pages under the patterns when pages are known
	var topPatterns []string
	if t.Has(models.ColPage) {
		topPatterns = patterns
	}
	for _, dim := range e.cfg.Dimensions {
		e.buildDimension(rep, dim, s1.Records, s2.Records, topN, topPatterns)
	}
	if len(patterns) > 0 {
		e.optional(rep, "subdomain_comparison", func() (Table, error) {
			if !t.Has(models.ColPage) {
				return Table{}, apperr.MissingColumns([]string{models.ColPage})
			}
			return subdomainComparison(s1.Records, s2.Records, patterns), nil
		})
	}
	return rep, nil
}

func (e *Engine) buildDimension(rep *Report, dim models.Dimension, r1, r2 []models.Record, topN int, patterns []string) {
	plural := dim.Plural()
	c1 := metrics.SummarizeByCategory(r1, dim, e.matcher, rep.P1.Label)
	c2 := metrics.SummarizeByCategory(r2, dim, e.matcher, rep.P2.Label)

	rep.Put("general_summary_"+plural, generalSummary(c1, c2))
	groups := e.matcher.GroupNames()
	rep.Put("category_comparison_clicks_"+plural, groupComparison(groups, c1, c2, models.MetricClicks))
	rep.Put("category_comparison_impressions_"+plural, groupComparison(groups, c1, c2, models.MetricImpressions))

	if dim == models.DimensionQuery && e.matcher.HasImportant() {
		e.optional(rep, "important_keywords_comparison", func() (Table, error) {
			k1 := metrics.SummarizeByCategory(e.important(r1), dim, e.matcher, rep.P1.Label)
			k2 := metrics.SummarizeByCategory(e.important(r2), dim, e.matcher, rep.P2.Label)
			return groupComparison(groups, k1, k2, models.MetricClicks), nil
		})
	}

	for _, m := range []models.Metric{models.MetricClicks, models.MetricImpressions} {
		ranked := metrics.TopN(r1, r2, metrics.RankOptions{
			Dimension:    dim,
			Metric:       m,
			N:            topN,
			Matcher:      e.matcher,
			PagePatterns: patterns,
		})
		rep.Put("top_"+plural+"_"+string(m), topTable(dim, m, ranked))
	}

	d1 := metrics.CategoryDistribution(r1, dim, e.matcher)
	d2 := metrics.CategoryDistribution(r2, dim, e.matcher)
	totals := metrics.TotalsOf(c1.Get(category.LabelTotal), c2.Get(category.LabelTotal))
	rep.Put("category_distribution_"+plural, mergedTable("category", metrics.MergeDistributionsWithTotals(d1, d2, totals)))

	if dim == models.DimensionPage {
		e.optional(rep, "subdomain_distribution_p1", func() (Table, error) {
			return distributionTable(metrics.SubdomainDistribution(r1)), nil
		})
		e.optional(rep, "subdomain_distribution_p2", func() (Table, error) {
			return distributionTable(metrics.SubdomainDistribution(r2)), nil
		})
		e.optional(rep, "subdomain_distribution", func() (Table, error) {
			merged := metrics.MergeDistributions(metrics.SubdomainDistribution(r1), metrics.SubdomainDistribution(r2))
			return mergedTable("subdomain", merged), nil
		})
	}
}

func (e *Engine) important(records []models.Record) []models.Record {
	var out []models.Record
	for _, r := range records {
		if e.matcher.IsImportant(r.Query) {
			out = append(out, r)
		}
	}
	return out
}

// optional adds a section unless building it fails, in which case the
// failure is logged and the section left out.
func (e *Engine) optional(rep *Report, name string, build func() (Table, error)) {
	t, err := build()
	if err != nil {
		e.log.Warn("report section omitted", zap.String("section", name), zap.Error(err))
		return
	}
	rep.Put(name, t)
}
