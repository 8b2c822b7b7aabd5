// Package export writes reports to CSV files and XLSX workbooks.
package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/AngelCh415/GSC_GO/internal/report"
)

const maxSheetName = 31

// WriteCSVDir writes one <prefix><section>.csv per section and returns the
// paths in section order. Undefined cells are left empty.
func WriteCSVDir(dir, prefix string, rep *report.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "export: create %s", dir)
	}
	var paths []string
	for _, s := range rep.Sections() {
		path := filepath.Join(dir, prefix+s.Name+".csv")
		if err := writeCSV(path, s.Table); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSV(path string, t report.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return eris.Wrapf(err, "export: write header %s", path)
	}
	for _, row := range t.Rows {
		rec := make([]string, len(row))
		for i, c := range row {
			rec[i] = FormatCell(c)
		}
		if err := w.Write(rec); err != nil {
			return eris.Wrapf(err, "export: write row %s", path)
		}
	}
	w.Flush()
	return eris.Wrapf(w.Error(), "export: flush %s", path)
}

// FormatCell renders a report cell as text; nil becomes "".
func FormatCell(c any) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// WriteXLSX writes one sheet per section. Sheet names are clipped to the
// 31 characters the format allows and suffixed when clipping collides.
func WriteXLSX(path string, rep *report.Report) error {
	f := xlsx.NewFile()
	used := map[string]struct{}{}
	for _, s := range rep.Sections() {
		sheet, err := f.AddSheet(SheetName(s.Name, used))
		if err != nil {
			return eris.Wrapf(err, "export: add sheet %s", s.Name)
		}
		header := sheet.AddRow()
		for _, c := range s.Table.Columns {
			header.AddCell().SetString(c)
		}
		for _, row := range s.Table.Rows {
			r := sheet.AddRow()
			for _, c := range row {
				cell := r.AddCell()
				switch v := c.(type) {
				case string:
					cell.SetString(v)
				case int:
					cell.SetInt(v)
				case float64:
					cell.SetFloat(v)
				}
			}
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "export: create %s", dir)
		}
	}
	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

// SheetName clips name to a unique sheet name and records it in used.
func SheetName(name string, used map[string]struct{}) string {
	base := name
	if len(base) > maxSheetName {
		base = base[:maxSheetName]
	}
	candidate := base
	for i := 2; ; i++ {
		if _, taken := used[strings.ToLower(candidate)]; !taken {
			break
		}
		suffix := "_" + strconv.Itoa(i)
		cut := base
		if len(cut)+len(suffix) > maxSheetName {
			cut = cut[:maxSheetName-len(suffix)]
		}
		candidate = cut + suffix
	}
	used[strings.ToLower(candidate)] = struct{}{}
	return candidate
}
