package metrics

import (
	"strings"
	"time"

	"github.com/AngelCh415/GSC_GO/internal/apperr"
	"github.com/AngelCh415/GSC_GO/internal/models"
)

const dateLayout = "2006-01-02"

// ParsePeriod builds a closed period from YYYY-MM-DD bounds.
func ParsePeriod(label, start, end string) (models.Period, error) {
	s, err := time.Parse(dateLayout, strings.TrimSpace(start))
	if err != nil {
		return models.Period{}, apperr.Configuration("period %s: bad start date %q", label, start)
	}
	e, err := time.Parse(dateLayout, strings.TrimSpace(end))
	if err != nil {
		return models.Period{}, apperr.Configuration("period %s: bad end date %q", label, end)
	}
	if e.Before(s) {
		return models.Period{}, apperr.Configuration("period %s: end %s before start %s", label, end, start)
	}
	return models.Period{Label: label, Start: s, End: e}, nil
}

// ParsePeriodSpec accepts "start,end" or "start..end".
func ParsePeriodSpec(label, spec string) (models.Period, error) {
	sep := ","
	if strings.Contains(spec, "..") {
		sep = ".."
	}
	parts := strings.SplitN(spec, sep, 2)
	if len(parts) != 2 {
		return models.Period{}, apperr.Configuration("period %s: expected start%send, got %q", label, sep, spec)
	}
	return ParsePeriod(label, parts[0], parts[1])
}

// Selection is a windowed subset plus the records excluded for lacking a date.
type Selection struct {
	Records []models.Record
	Dropped int
}

// Select keeps the records whose date falls inside p. The input is not
// modified.
func Select(records []models.Record, p models.Period) Selection {
	var sel Selection
	for _, r := range records {
		if r.Date.IsZero() {
			sel.Dropped++
			continue
		}
		if p.Contains(r.Date) {
			sel.Records = append(sel.Records, r)
		}
	}
	return sel
}
