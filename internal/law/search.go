package law

import (
	"strconv"
	"strings"

	pstrings "altar/pkg/platform/strings"
)

// Query filters a catalog for browsing. Zero-valued fields match anything.
type Query struct {
	// Text matches a case-insensitive substring of the title or citation,
	// or a rule id exactly.
	Text      string
	Category  Category
	Severity  Severity
	Authority Authority
}

// Matches reports whether a rule satisfies every set field of the query.
func (q Query) Matches(r Rule) bool {
	if q.Category != "" && r.Category != q.Category {
		return false
	}
	if q.Severity != "" && r.Severity != q.Severity {
		return false
	}
	if q.Authority != "" && r.Authority != q.Authority {
		return false
	}
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return true
	}
	return pstrings.ContainsFold(r.Title, text) ||
		pstrings.ContainsFold(r.Citation, text) ||
		strconv.Itoa(r.ID) == text
}

// Search returns the rules matching q in catalog order.
func Search(rules []Rule, q Query) []Rule {
	out := []Rule{}
	for _, r := range rules {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
