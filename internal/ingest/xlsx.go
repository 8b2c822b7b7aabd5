package ingest

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/AngelCh415/GSC_GO/internal/models"
)

// ReadXLSX loads one sheet of a workbook; an empty sheet name picks the
// first one. The first row is the header.
func ReadXLSX(path, sheet string) (models.Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return models.Table{}, eris.Wrap(err, "xlsx: open file")
	}
	sh, err := getSheet(f, sheet)
	if err != nil {
		return models.Table{}, err
	}
	if len(sh.Rows) == 0 {
		return models.Table{}, eris.Errorf("xlsx: sheet %q is empty", sh.Name)
	}

	p, err := newRowParser(rowToStrings(sh.Rows[0]))
	if err != nil {
		return models.Table{}, err
	}
	var (
		records []models.Record
		skipped int
	)
	for _, row := range sh.Rows[1:] {
		rec, ok := p.parse(rowToStrings(row))
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return p.table(records, skipped), nil
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
