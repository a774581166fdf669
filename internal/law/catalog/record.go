package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"altar/internal/law"
)

// document is the on-disk catalog layout.
type document struct {
	Version string   `yaml:"version"`
	Rules   []record `yaml:"rules"`
}

// record is one rule as written in a catalog file. Enumerated fields stay
// strings here and are parsed into domain types by toRule.
type record struct {
	ID             int       `yaml:"id"`
	Title          string    `yaml:"title"`
	Citation       string    `yaml:"citation"`
	Category       string    `yaml:"category"`
	Severity       string    `yaml:"severity"`
	Tribes         tribeList `yaml:"tribes"`
	Sex            string    `yaml:"sex"`
	MinAge         int       `yaml:"min_age"`
	MaxAge         *int      `yaml:"max_age"`
	LandRequired   bool      `yaml:"land_required"`
	TempleRequired bool      `yaml:"temple_required"`
	Mode           string    `yaml:"mode"`

	Authority         string `yaml:"authority"`
	DivineIntent      string `yaml:"divine_intent"`
	PropheticTheme    string `yaml:"prophetic_theme"`
	ModernApplication string `yaml:"modern_application"`
	Penalty           string `yaml:"penalty"`
}

// tribeList accepts either a scalar ("All") or a sequence of tribe names.
type tribeList []string

func (t *tribeList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = tribeList{node.Value}
		return nil
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return err
		}
		if values == nil {
			values = []string{}
		}
		*t = values
		return nil
	default:
		return fmt.Errorf("line %d: tribes must be a string or a list", node.Line)
	}
}

// toRule converts a record into a domain rule. Omitted sex means both sexes,
// omitted tribes means all tribes and omitted max_age means law.MaxAge.
func (r record) toRule() (law.Rule, error) {
	rule := law.Rule{
		ID:                r.ID,
		Title:             r.Title,
		Citation:          r.Citation,
		MinAge:            r.MinAge,
		MaxAge:            law.MaxAge,
		LandRequired:      r.LandRequired,
		TempleRequired:    r.TempleRequired,
		DivineIntent:      r.DivineIntent,
		PropheticTheme:    r.PropheticTheme,
		ModernApplication: r.ModernApplication,
		Penalty:           r.Penalty,
		Tribes:            law.AllTribes(),
		Sex:               law.BothSexes(),
	}
	if r.MaxAge != nil {
		rule.MaxAge = *r.MaxAge
	}

	var err error
	if rule.Category, err = law.ParseCategory(r.Category); err != nil {
		return law.Rule{}, err
	}
	if rule.Severity, err = law.ParseSeverity(r.Severity); err != nil {
		return law.Rule{}, err
	}
	if rule.Mode, err = law.ParseActivationMode(r.Mode); err != nil {
		return law.Rule{}, err
	}
	if r.Tribes != nil {
		if rule.Tribes, err = law.ParseTribeSet(r.Tribes); err != nil {
			return law.Rule{}, err
		}
	}
	if r.Sex != "" {
		if rule.Sex, err = law.ParseSexConstraint(r.Sex); err != nil {
			return law.Rule{}, err
		}
	}
	if r.Authority != "" {
		if rule.Authority, err = law.ParseAuthority(r.Authority); err != nil {
			return law.Rule{}, err
		}
	}
	return rule, nil
}

// fromRule is the inverse of toRule, used when writing catalogs back out.
func fromRule(r law.Rule) record {
	maxAge := r.MaxAge
	rec := record{
		ID:                r.ID,
		Title:             r.Title,
		Citation:          r.Citation,
		Category:          string(r.Category),
		Severity:          string(r.Severity),
		Sex:               r.Sex.String(),
		MinAge:            r.MinAge,
		MaxAge:            &maxAge,
		LandRequired:      r.LandRequired,
		TempleRequired:    r.TempleRequired,
		Mode:              string(r.Mode),
		Authority:         string(r.Authority),
		DivineIntent:      r.DivineIntent,
		PropheticTheme:    r.PropheticTheme,
		ModernApplication: r.ModernApplication,
		Penalty:           r.Penalty,
	}
	if r.Tribes.IsAll() {
		rec.Tribes = tribeList{"All"}
	} else {
		for _, t := range r.Tribes.Tribes() {
			rec.Tribes = append(rec.Tribes, string(t))
		}
	}
	return rec
}
