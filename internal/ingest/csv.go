package ingest

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/AngelCh415/GSC_GO/internal/models"
)

// ReadCSV loads a search analytics export. Headers are matched
// case-insensitively; rows with unreadable numbers are counted in
// Table.Skipped rather than failing the load.
func ReadCSV(r io.Reader) (models.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return models.Table{}, eris.New("csv: empty input")
	}
	if err != nil {
		return models.Table{}, eris.Wrap(err, "csv: read header")
	}
	p, err := newRowParser(header)
	if err != nil {
		return models.Table{}, err
	}

	var (
		records []models.Record
		skipped int
	)
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Table{}, eris.Wrap(err, "csv: read row")
		}
		rec, ok := p.parse(cells)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return p.table(records, skipped), nil
}

func ReadCSVFile(path string) (models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Table{}, eris.Wrap(err, "csv: open file")
	}
	defer f.Close()
	t, err := ReadCSV(f)
	return t, eris.Wrapf(err, "csv: %s", path)
}
