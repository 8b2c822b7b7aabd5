// Package report assembles the named comparison tables of a two-period
// search traffic analysis.
package report

import (
	"github.com/AngelCh415/GSC_GO/internal/models"
)

// Table is one report section. Cells hold string, int, float64 or nil, where
// nil marks an undefined metric.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewTable returns an empty table with the given columns.
func NewTable(cols ...string) Table {
	return Table{Columns: cols, Rows: [][]any{}}
}

func (t *Table) Add(cells ...any) { t.Rows = append(t.Rows, cells) }

// Section pairs a table with its name, for ordered iteration.
type Section struct {
	Name  string `json:"name"`
	Table Table  `json:"table"`
}

// Report keeps its sections in insertion order.
type Report struct {
	P1, P2   models.Period
	Dropped  int // records excluded from both windows for lacking a date
	Skipped  int // rows the loader could not parse
	sections []Section
	index    map[string]int
}

func New(p1, p2 models.Period) *Report {
	return &Report{P1: p1, P2: p2, index: map[string]int{}}
}

// Put adds a section, replacing the table of an existing name in place.
func (r *Report) Put(name string, t Table) {
	if i, ok := r.index[name]; ok {
		r.sections[i].Table = t
		return
	}
	r.index[name] = len(r.sections)
	r.sections = append(r.sections, Section{Name: name, Table: t})
}

// Names lists the section names in the order they were built.
func (r *Report) Names() []string {
	out := make([]string, len(r.sections))
	for i, s := range r.sections {
		out[i] = s.Name
	}
	return out
}

func (r *Report) Section(name string) (Table, bool) {
	i, ok := r.index[name]
	if !ok {
		return Table{}, false
	}
	return r.sections[i].Table, true
}

func (r *Report) Sections() []Section {
	return append([]Section(nil), r.sections...)
}

func (r *Report) Len() int { return len(r.sections) }
