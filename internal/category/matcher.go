package category

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases, trims and strips combining accents so "Máquina " and
// "maquina" compare equal. It does no fuzzy matching.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Lower(language.Und).String(out)
}

// Classification is the label set a single text resolves to.
type Classification struct {
	Groups    []string // matched groups, configuration order
	Branded   bool
	Important bool
}

type compiledRule struct {
	name  string
	brand bool
	terms []string
}

// Matcher resolves texts to category labels. It is read-only after
// construction and safe for concurrent use.
type Matcher struct {
	rules     []compiledRule
	important []string
}

func NewMatcher(cfg Config) *Matcher {
	m := &Matcher{
		rules:     make([]compiledRule, 0, len(cfg.Groups)),
		important: normalizeTerms(cfg.ImportantKeywords),
	}
	for _, g := range cfg.Groups {
		m.rules = append(m.rules, compiledRule{name: g.Name, brand: g.Brand, terms: normalizeTerms(g.Terms)})
	}
	return m
}

// blank terms would match every text
func normalizeTerms(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if n := Normalize(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// Classify evaluates every group independently against text.
func (m *Matcher) Classify(text string) Classification {
	var c Classification
	n := Normalize(text)
	if n == "" {
		return c
	}
	for _, r := range m.rules {
		if containsAny(n, r.terms) {
			c.Groups = append(c.Groups, r.name)
			if r.brand {
				c.Branded = true
			}
		}
	}
	c.Important = containsAny(n, m.important)
	return c
}

// Labels returns the aggregation labels for text: every matched group plus
// non_branded when no brand group matched.
func (m *Matcher) Labels(text string) []string {
	c := m.Classify(text)
	if c.Branded {
		return c.Groups
	}
	return append(c.Groups, LabelNonBranded)
}

// FirstGroup is the earliest matched group in configuration order, or "" for
// unmatched texts. It labels single rows, so a text in several groups shows
// only the first.
func (m *Matcher) FirstGroup(text string) string {
	if c := m.Classify(text); len(c.Groups) > 0 {
		return c.Groups[0]
	}
	return ""
}

func (m *Matcher) IsImportant(text string) bool {
	return containsAny(Normalize(text), m.important)
}

func (m *Matcher) HasImportant() bool { return len(m.important) > 0 }

// GroupNames lists the configured groups in order.
func (m *Matcher) GroupNames() []string {
	out := make([]string, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r.name)
	}
	return out
}
