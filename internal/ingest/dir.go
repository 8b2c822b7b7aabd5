package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/GSC_GO/internal/models"
)

const maxParallelReads = 4

// LoadDir reads every CSV file under dir concurrently and concatenates the
// tables in sorted path order.
func LoadDir(ctx context.Context, dir string, recursive bool) (models.Table, error) {
	paths, err := csvFiles(dir, recursive)
	if err != nil {
		return models.Table{}, err
	}
	if len(paths) == 0 {
		return models.Table{}, eris.Errorf("ingest: no csv files in %s", dir)
	}

	tables := make([]models.Table, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return eris.Wrap(err, "ingest: load cancelled")
			}
			t, err := ReadCSVFile(path)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Table{}, err
	}

	var out models.Table
	for i, t := range tables {
		if i == 0 {
			out = t
			continue
		}
		out = out.Append(t)
	}
	return out, nil
}

func csvFiles(dir string, recursive bool) ([]string, error) {
	var paths []string
	isCSV := func(name string) bool { return strings.EqualFold(filepath.Ext(name), ".csv") }
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read dir %s", dir)
		}
		for _, e := range entries {
			if !e.IsDir() && isCSV(e.Name()) {
				paths = append(paths, filepath.Join(dir, e.Name()))
			}
		}
	} else {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isCSV(d.Name()) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: walk %s", dir)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
