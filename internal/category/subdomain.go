package category

import (
	"net/url"
	"strings"
)

// Hostname extracts the lowercased host of a page URL, "" when there is none.
func Hostname(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// MatchPatterns returns the subdomain patterns contained in the URL.
func MatchPatterns(raw string, patterns []string) []string {
	u := strings.ToLower(raw)
	var out []string
	for _, p := range patterns {
		lp := strings.ToLower(strings.TrimSpace(p))
		if lp != "" && strings.Contains(u, lp) {
			out = append(out, p)
		}
	}
	return out
}
