package main

import (
	"github.com/spf13/cobra"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
	"github.com/AngelCh415/GSC_GO/internal/category"
	"github.com/AngelCh415/GSC_GO/internal/metrics"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

var topFlags struct {
	input      inputFlags
	category   categoryFlags
	p1, p2     string
	dimension  string
	metric     string
	n          int
	order      string
	subdomains []string
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Rank queries or pages by their change between two periods",
	RunE: func(cmd *cobra.Command, args []string) error {
		p1, err := metrics.ParsePeriodSpec("p1", topFlags.p1)
		if err != nil {
			return err
		}
		p2, err := metrics.ParsePeriodSpec("p2", topFlags.p2)
		if err != nil {
			return err
		}
		dim := models.Dimension(topFlags.dimension)
		if !dim.Valid() {
			return apperr.Configuration("invalid dimension %q", topFlags.dimension)
		}
		metric := models.Metric(topFlags.metric)
		if !metric.Valid() {
			return apperr.Configuration("invalid metric %q", topFlags.metric)
		}
		order, err := metrics.ParseRankOrder(topFlags.order)
		if err != nil {
			return err
		}
		cc, err := topFlags.category.resolve()
		if err != nil {
			return err
		}
		tbl, err := topFlags.input.load(cmd.Context())
		if err != nil {
			return err
		}
		if err := tbl.Require(append([]string{string(dim)}, models.MetricColumns...)...); err != nil {
			return err
		}
		ranked := metrics.TopN(metrics.Select(tbl.Records, p1).Records, metrics.Select(tbl.Records, p2).Records, metrics.RankOptions{
			Dimension:    dim,
			Metric:       metric,
			N:            topFlags.n,
			Order:        order,
			Matcher:      category.NewMatcher(cc),
			PagePatterns: topFlags.subdomains,
		})
		return printJSON(cmd, ranked)
	},
}

func init() {
	f := topCmd.Flags()
	topFlags.input.register(topCmd)
	topFlags.category.register(topCmd)
	f.StringVar(&topFlags.p1, "p1", "", "base period, start,end")
	f.StringVar(&topFlags.p2, "p2", "", "comparison period, start,end")
	f.StringVar(&topFlags.dimension, "dimension", "query", "query or page")
	f.StringVar(&topFlags.metric, "metric", "clicks", "clicks, impressions, ctr or position")
	f.IntVar(&topFlags.n, "n", 10, "number of rows")
	f.StringVar(&topFlags.order, "order", "magnitude", "magnitude, gain or loss")
	f.StringSliceVar(&topFlags.subdomains, "subdomain", nil, "keep only pages matching these patterns")
	_ = topCmd.MarkFlagRequired("p1")
	_ = topCmd.MarkFlagRequired("p2")
	rootCmd.AddCommand(topCmd)
}
