package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AngelCh415/GSC_GO/internal/export"
	"github.com/AngelCh415/GSC_GO/internal/metrics"
	"github.com/AngelCh415/GSC_GO/internal/report"
)

var reportFlags struct {
	input      inputFlags
	category   categoryFlags
	p1, p2     string
	top        int
	subdomains []string
	outDir     string
	prefix     string
	xlsxPath   string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the full two-period comparison report",
	Example: `  gsc report --input data/ --preset transbank --p1 2026-01-17,2026-01-23 --p2 2026-01-24,2026-01-30 --out-dir out/
  gsc report --input export.xlsx --client-config acme.yaml --p1 ... --p2 ... --xlsx report.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		p1, err := metrics.ParsePeriodSpec("p1", reportFlags.p1)
		if err != nil {
			return err
		}
		p2, err := metrics.ParsePeriodSpec("p2", reportFlags.p2)
		if err != nil {
			return err
		}
		cc, err := reportFlags.category.resolve()
		if err != nil {
			return err
		}
		eng, err := report.NewEngine(cc, report.WithLogger(zap.L()))
		if err != nil {
			return err
		}
		tbl, err := reportFlags.input.load(ctx)
		if err != nil {
			return err
		}

		top := reportFlags.top
		if top == 0 {
			top = cfg.Report.TopN
		}
		subdomains := reportFlags.subdomains
		if len(subdomains) == 0 {
			subdomains = cfg.Report.Subdomains
		}
		rep, err := eng.Build(tbl, p1, p2, report.Options{TopN: top, Subdomains: subdomains})
		if err != nil {
			return err
		}
		if rep.Dropped > 0 {
			zap.L().Warn("rows without a usable date left out", zap.Int("dropped", rep.Dropped))
		}

		prefix := reportFlags.prefix
		if prefix == "" && cc.Client != "" {
			prefix = cc.Client + "_"
		}
		wrote := false
		if reportFlags.outDir != "" {
			paths, err := export.WriteCSVDir(reportFlags.outDir, prefix, rep)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			wrote = true
		}
		if reportFlags.xlsxPath != "" {
			if err := export.WriteXLSX(reportFlags.xlsxPath, rep); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reportFlags.xlsxPath)
			wrote = true
		}
		if !wrote {
			return printJSON(cmd, rep.Sections())
		}
		return nil
	},
}

func init() {
	f := reportCmd.Flags()
	reportFlags.input.register(reportCmd)
	reportFlags.category.register(reportCmd)
	f.StringVar(&reportFlags.p1, "p1", "", "base period, start,end (YYYY-MM-DD)")
	f.StringVar(&reportFlags.p2, "p2", "", "comparison period, start,end (YYYY-MM-DD)")
	f.IntVar(&reportFlags.top, "top", 0, "rows per top table (default from config)")
	f.StringSliceVar(&reportFlags.subdomains, "subdomain", nil, "page URL patterns to compare (repeatable)")
	f.StringVar(&reportFlags.outDir, "out-dir", "", "write one CSV per section into this directory")
	f.StringVar(&reportFlags.prefix, "prefix", "", "CSV file name prefix (default <client>_)")
	f.StringVar(&reportFlags.xlsxPath, "xlsx", "", "write all sections into this workbook")
	_ = reportCmd.MarkFlagRequired("p1")
	_ = reportCmd.MarkFlagRequired("p2")
	rootCmd.AddCommand(reportCmd)
}
