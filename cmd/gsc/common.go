package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AngelCh415/GSC_GO/internal/category"
	"github.com/AngelCh415/GSC_GO/internal/config"
	"github.com/AngelCh415/GSC_GO/internal/ingest"
	"github.com/AngelCh415/GSC_GO/internal/models"
	"github.com/AngelCh415/GSC_GO/internal/store"
)

// inputFlags select where analysis rows come from: a CSV/XLSX file, a
// directory of CSVs, or the configured store when empty.
type inputFlags struct {
	path      string
	sheet     string
	recursive bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "input", "", "CSV/XLSX file or directory of CSV files (default: configured store)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	cmd.Flags().BoolVar(&f.recursive, "recursive", false, "walk subdirectories of --input")
}

func (f *inputFlags) load(ctx context.Context) (models.Table, error) {
	if f.path == "" {
		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return models.Table{}, err
		}
		defer st.Close()
		return st.Table(ctx)
	}
	info, err := os.Stat(f.path)
	if err != nil {
		return models.Table{}, eris.Wrapf(err, "input %s", f.path)
	}
	var t models.Table
	switch {
	case info.IsDir():
		t, err = ingest.LoadDir(ctx, f.path, f.recursive)
	case strings.EqualFold(filepath.Ext(f.path), ".xlsx"):
		t, err = ingest.ReadXLSX(f.path, f.sheet)
	default:
		t, err = ingest.ReadCSVFile(f.path)
	}
	if err != nil {
		return models.Table{}, err
	}
	if t.Skipped > 0 {
		zap.L().Warn("unparseable rows skipped", zap.String("input", f.path), zap.Int("skipped", t.Skipped))
	}
	return t, nil
}

// categoryFlags override the configured client category source.
type categoryFlags struct {
	clientConfig string
	preset       string
}

func (f *categoryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.clientConfig, "client-config", "", "client category YAML file")
	cmd.Flags().StringVar(&f.preset, "preset", "", "built-in client preset (see 'gsc presets')")
}

func (f *categoryFlags) resolve() (category.Config, error) {
	rc := cfg.Report
	if f.clientConfig != "" {
		rc.ClientConfig = f.clientConfig
	}
	if f.preset != "" {
		rc.ClientConfig = ""
		rc.Preset = f.preset
	}
	return rc.Category()
}

func openStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		st, err := store.NewSQLite(sc.DSN)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	}
	return nil, eris.Errorf("unknown store driver %q", sc.Driver)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "write output")
}
