package metrics

import (
	"strings"

	"github.com/samber/lo"

	"github.com/AngelCh415/GSC_GO/internal/category"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

// EntityFilter keeps records by substrings of their entity text. Empty lists
// impose no restriction.
type EntityFilter struct {
	IncludeAny []string
	IncludeAll []string
	ExcludeAny []string
}

func (f EntityFilter) IsEmpty() bool {
	return len(f.IncludeAny) == 0 && len(f.IncludeAll) == 0 && len(f.ExcludeAny) == 0
}

// Match applies the filter to a single text.
func (f EntityFilter) Match(text string) bool {
	n := category.Normalize(text)
	has := func(t string) bool {
		nt := category.Normalize(t)
		return nt != "" && strings.Contains(n, nt)
	}
	if len(f.IncludeAny) > 0 && !lo.SomeBy(f.IncludeAny, has) {
		return false
	}
	if !lo.EveryBy(f.IncludeAll, has) {
		return false
	}
	return !lo.SomeBy(f.ExcludeAny, has)
}

// Apply returns the matching records; the input slice is left untouched.
func (f EntityFilter) Apply(records []models.Record, dim models.Dimension) []models.Record {
	if f.IsEmpty() {
		return records
	}
	return lo.Filter(records, func(r models.Record, _ int) bool { return f.Match(r.Entity(dim)) })
}
