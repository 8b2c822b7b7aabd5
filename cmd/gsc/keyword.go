package main

import (
	"github.com/spf13/cobra"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
	"github.com/AngelCh415/GSC_GO/internal/metrics"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

var keywordFlags struct {
	input       inputFlags
	keyword     string
	exact       bool
	dimension   string
	granularity string
	from, to    string
	include     []string
	exclude     []string
}

var keywordCmd = &cobra.Command{
	Use:   "keyword",
	Short: "Show a keyword's clicks and impressions over time",
	RunE: func(cmd *cobra.Command, args []string) error {
		gran, err := metrics.ParseGranularity(keywordFlags.granularity)
		if err != nil {
			return err
		}
		dim := models.Dimension(keywordFlags.dimension)
		if !dim.Valid() {
			return apperr.Configuration("invalid dimension %q", keywordFlags.dimension)
		}
		opts := metrics.SeriesOptions{
			Dimension:   dim,
			Keyword:     keywordFlags.keyword,
			Exact:       keywordFlags.exact,
			Granularity: gran,
		}
		if keywordFlags.from != "" || keywordFlags.to != "" {
			p, err := metrics.ParsePeriod("series", keywordFlags.from, keywordFlags.to)
			if err != nil {
				return err
			}
			opts.From, opts.To = p.Start, p.End
		}
		tbl, err := keywordFlags.input.load(cmd.Context())
		if err != nil {
			return err
		}
		if err := tbl.Require(string(dim), models.ColDate, models.ColClicks, models.ColImpressions, models.ColPosition); err != nil {
			return err
		}
		recs := tbl.Records
		if !opts.From.IsZero() {
			recs = metrics.Select(recs, models.Period{Start: opts.From, End: opts.To}).Records
		}
		filter := metrics.EntityFilter{IncludeAny: keywordFlags.include, ExcludeAny: keywordFlags.exclude}
		return printJSON(cmd, metrics.KeywordSeries(filter.Apply(recs, dim), opts))
	},
}

func init() {
	f := keywordCmd.Flags()
	keywordFlags.input.register(keywordCmd)
	f.StringVar(&keywordFlags.keyword, "keyword", "", "keyword to follow (empty: all rows)")
	f.BoolVar(&keywordFlags.exact, "exact", false, "match the whole query instead of a substring")
	f.StringVar(&keywordFlags.dimension, "dimension", "query", "query or page")
	f.StringVar(&keywordFlags.granularity, "granularity", "month", "day or month")
	f.StringVar(&keywordFlags.from, "from", "", "first day, YYYY-MM-DD")
	f.StringVar(&keywordFlags.to, "to", "", "last day, YYYY-MM-DD")
	f.StringSliceVar(&keywordFlags.include, "include", nil, "keep only rows containing any of these terms")
	f.StringSliceVar(&keywordFlags.exclude, "exclude", nil, "drop rows containing any of these terms")
	rootCmd.AddCommand(keywordCmd)
}
