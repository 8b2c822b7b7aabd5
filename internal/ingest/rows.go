package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
	"github.com/AngelCh415/GSC_GO/internal/category"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

// headerAliases maps export headers seen in the wild to canonical columns.
var headerAliases = map[string]string{
	"top_queries": models.ColQuery,
	"queries":     models.ColQuery,
	"consulta":    models.ColQuery,
	"consultas":   models.ColQuery,
	"top_pages":   models.ColPage,
	"pages":       models.ColPage,
	"pagina":      models.ColPage,
	"url":         models.ColPage,
	"fecha":       models.ColDate,
	"clics":       models.ColClicks,
	"impresiones": models.ColImpressions,
	"posicion":    models.ColPosition,
	"dispositivo": models.ColDevice,
	"pais":        models.ColCountry,
}

// columnName turns a raw header into its canonical snake_case column.
func columnName(h string) string {
	n := category.Normalize(strings.TrimPrefix(h, "\ufeff"))
	n = strings.Join(strings.FieldsFunc(n, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.'
	}), "_")
	if c, ok := headerAliases[n]; ok {
		return c
	}
	return n
}

// rowParser converts positional cells into records.
type rowParser struct {
	cols []string
	idx  map[string]int
}

func newRowParser(header []string) (*rowParser, error) {
	p := &rowParser{idx: make(map[string]int, len(header))}
	for i, h := range header {
		c := columnName(h)
		if c == "" {
			continue
		}
		if _, dup := p.idx[c]; dup {
			continue
		}
		p.idx[c] = i
		p.cols = append(p.cols, c)
	}
	t := models.NewTable(p.cols, nil)
	if err := t.Require(models.MetricColumns...); err != nil {
		return nil, err
	}
	if !t.Has(models.ColQuery) && !t.Has(models.ColPage) {
		return nil, apperr.MissingColumns([]string{models.ColQuery + " or " + models.ColPage})
	}
	return p, nil
}

func (p *rowParser) get(cells []string, col string) string {
	i, ok := p.idx[col]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// parse returns false for rows whose numeric cells cannot be read. An
// unreadable date is kept as the zero time.
func (p *rowParser) parse(cells []string) (models.Record, bool) {
	r := models.Record{
		Query:   p.get(cells, models.ColQuery),
		Page:    p.get(cells, models.ColPage),
		Device:  p.get(cells, models.ColDevice),
		Country: p.get(cells, models.ColCountry),
		Date:    parseDate(p.get(cells, models.ColDate)),
	}
	var ok bool
	if r.Clicks, ok = parseCount(p.get(cells, models.ColClicks)); !ok {
		return r, false
	}
	if r.Impressions, ok = parseCount(p.get(cells, models.ColImpressions)); !ok {
		return r, false
	}
	if r.CTR, ok = parseRatio(p.get(cells, models.ColCTR)); !ok {
		return r, false
	}
	if r.Position, ok = parseFloat(p.get(cells, models.ColPosition)); !ok {
		return r, false
	}
	return r, true
}

func (p *rowParser) table(records []models.Record, skipped int) models.Table {
	t := models.NewTable(p.cols, records)
	t.Skipped = skipped
	return t
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006/01/02", "02-01-2006", "02/01/2006"}

func parseDate(s string) time.Time {
	for _, l := range dateLayouts {
		if d, err := time.Parse(l, s); err == nil {
			return models.Day(d)
		}
	}
	return time.Time{}
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if f < 0 {
		f = 0
	}
	return f, true
}

func parseCount(s string) (int, bool) {
	s = strings.ReplaceAll(s, ",", "")
	f, ok := parseFloat(s)
	return int(f), ok
}

// parseRatio reads "0.125" or "12.5%" as 0.125.
func parseRatio(s string) (float64, bool) {
	if strings.HasSuffix(s, "%") {
		f, ok := parseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")))
		return f / 100, ok
	}
	return parseFloat(s)
}
