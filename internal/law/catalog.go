package law

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrEmptyCatalog is returned when a catalog has no rules. The evaluator
// needs at least one rule to serve as the fallback primary.
var ErrEmptyCatalog = errors.New("catalog has no rules")

// RuleError describes one invalid catalog entry.
type RuleError struct {
	// Index is the position of the rule in the catalog.
	Index  int
	ID     int
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule #%d (id %d): %s", e.Index, e.ID, e.Reason)
}

// CatalogError aggregates every problem found while validating a catalog so
// loaders can reject it with a complete report.
type CatalogError struct {
	Problems []error
}

func (e *CatalogError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("invalid catalog (%d problems): %s", len(e.Problems), strings.Join(msgs, "; "))
}

func (e *CatalogError) Unwrap() []error {
	return e.Problems
}

// ValidateCatalog checks the invariants the evaluator relies on:
//   - at least one rule
//   - ids are positive and unique
//   - 0 <= Rule.MinAge <= Rule.MaxAge <= law.MaxAge (120)
//   - a tribe constraint is "All" or non-empty
//   - enumerated fields hold known values
//   - titles are present
func ValidateCatalog(rules []Rule) error {
	if len(rules) == 0 {
		return ErrEmptyCatalog
	}

	var problems []error
	add := func(i int, r Rule, format string, args ...any) {
		problems = append(problems, &RuleError{Index: i, ID: r.ID, Reason: fmt.Sprintf(format, args...)})
	}

	seen := make(map[int]int, len(rules))
	for i, r := range rules {
		if r.ID <= 0 {
			add(i, r, "id must be positive")
		} else if first, dup := seen[r.ID]; dup {
			add(i, r, "duplicate id, first defined at #%d", first)
		} else {
			seen[r.ID] = i
		}
		if strings.TrimSpace(r.Title) == "" {
			add(i, r, "title is required")
		}
		if r.MinAge < 0 || r.MinAge > r.MaxAge || r.MaxAge > MaxAge {
			add(i, r, "age range [%d, %d] must satisfy 0 <= min <= max <= %d", r.MinAge, r.MaxAge, MaxAge)
		}
		if r.Tribes.IsEmpty() {
			add(i, r, "tribes must be \"All\" or a non-empty list")
		}
		if _, ok := severityRanks[r.Severity]; !ok {
			add(i, r, "unknown severity %q", r.Severity)
		}
		if _, err := ParseActivationMode(string(r.Mode)); err != nil {
			add(i, r, "unknown activation mode %q", r.Mode)
		}
		if !slices.Contains(Categories(), r.Category) {
			add(i, r, "unknown category %q", r.Category)
		}
		if r.Authority != "" {
			if _, err := ParseAuthority(string(r.Authority)); err != nil {
				add(i, r, "unknown authority %q", r.Authority)
			}
		}
	}

	if len(problems) > 0 {
		return &CatalogError{Problems: problems}
	}
	return nil
}

// Catalog is a validated, read-only rule collection. Build it with
// NewCatalog; a *Catalog is safe for concurrent use.
type Catalog struct {
	rules   []Rule
	index   map[int]int
	version string
}

// NewCatalog validates rules and wraps a private copy of them. Version is an
// opaque label (file digest, release tag) reported alongside evaluations.
func NewCatalog(rules []Rule, version string) (*Catalog, error) {
	if err := ValidateCatalog(rules); err != nil {
		return nil, err
	}
	owned := slices.Clone(rules)
	index := make(map[int]int, len(owned))
	for i, r := range owned {
		index[r.ID] = i
	}
	return &Catalog{rules: owned, index: index, version: version}, nil
}

// Rules returns a copy of the rules in catalog order.
func (c *Catalog) Rules() []Rule {
	return slices.Clone(c.rules)
}

// Len returns the number of rules.
func (c *Catalog) Len() int { return len(c.rules) }

// Version returns the label the catalog was built with.
func (c *Catalog) Version() string { return c.version }

// Get returns the rule with the given id.
func (c *Catalog) Get(id int) (Rule, bool) {
	i, ok := c.index[id]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// IDs returns every rule id in ascending order.
func (c *Catalog) IDs() []int {
	return slices.Sorted(maps.Keys(c.index))
}

// Evaluate runs the evaluator over the catalog.
func (c *Catalog) Evaluate(ctx UserContext) DailyProtocol {
	return Evaluate(ctx, c.rules)
}

// CountByCategory returns the number of rules per category.
func (c *Catalog) CountByCategory() map[Category]int {
	counts := make(map[Category]int)
	for _, r := range c.rules {
		counts[r.Category]++
	}
	return counts
}
