package law

import (
	"cmp"
	"slices"
)

const (
	// MaxSupporting bounds the supporting rules surfaced beside the primary.
	MaxSupporting = 3

	// conditionalMaturityAge is the exclusive lower age bound for conditional
	// rules to activate.
	conditionalMaturityAge = 30
)

// Resolve computes the status of one rule for a context. The second result
// is false when the age or sex gate hides the rule entirely; such rules carry
// no status and are not counted anywhere.
//
// Resolution order (first match wins):
//  1. Age gate and sex gate (hidden)
//  2. Land required while in exile (dormant)
//  3. Temple required (training)
//  4. Activation mode dispatch
//
// Tribe membership is consulted only for ModeAlways; calendar, conditional
// and dormant rules apply regardless of tribe.
func Resolve(ctx UserContext, r Rule) (Status, bool) {
	if ctx.Age < r.MinAge || ctx.Age > r.MaxAge {
		return "", false
	}
	if !r.Sex.Admits(ctx.Sex) {
		return "", false
	}

	if r.LandRequired && ctx.Location != LocationInLand {
		return StatusDormant, true
	}
	if r.TempleRequired {
		return StatusTraining, true
	}

	switch r.Mode {
	case ModeCalendarBased:
		if ctx.Feast.Active() {
			return StatusActive, true
		}
		return StatusInactive, true
	case ModeConditional:
		if ctx.Age > conditionalMaturityAge {
			return StatusActive, true
		}
		return StatusInactive, true
	case ModeDormant:
		return StatusDormant, true
	default:
		if r.Tribes.Includes(ctx.Tribe) {
			return StatusActive, true
		}
		return StatusInactive, true
	}
}

// EvaluateAll resolves every visible rule in catalog order.
func EvaluateAll(ctx UserContext, rules []Rule) []EvaluatedRule {
	out := make([]EvaluatedRule, 0, len(rules))
	for _, r := range rules {
		status, ok := Resolve(ctx, r)
		if !ok {
			continue
		}
		out = append(out, EvaluatedRule{Rule: r, Status: status})
	}
	return out
}

// Evaluate selects the daily protocol for a context.
//
// It is pure and deterministic: identical inputs always produce an identical
// protocol, and neither input is modified. The catalog must be non-empty;
// with an empty catalog there is no fallback rule and the zero protocol is
// returned. Catalogs built with NewCatalog always satisfy this.
func Evaluate(ctx UserContext, rules []Rule) DailyProtocol {
	p := DailyProtocol{Supporting: []Rule{}}

	var active []Rule
	for _, er := range EvaluateAll(ctx, rules) {
		switch er.Status {
		case StatusActive:
			p.ActiveCount++
			active = append(active, er.Rule)
		case StatusTraining:
			p.TrainingCount++
		case StatusDormant:
			p.DormantCount++
		case StatusInactive:
			p.InactiveCount++
		}
	}

	Rank(active)

	switch {
	case len(active) > 0:
		p.Primary = active[0]
		end := min(len(active), 1+MaxSupporting)
		p.Supporting = append(p.Supporting, active[1:end]...)
	case len(rules) > 0:
		p.Primary = rules[0]
		p.Fallback = true
	}
	return p
}

// Rank sorts rules in place by selection priority:
//  1. calendar-based rules first
//  2. severity, judgment before command before instruction
//  3. ascending id
//
// The sort is stable so duplicate ids keep catalog order.
func Rank(rules []Rule) {
	slices.SortStableFunc(rules, CompareRank)
}

// CompareRank orders two rules by selection priority. It returns a negative
// number when a should be surfaced before b.
func CompareRank(a, b Rule) int {
	if c := cmp.Compare(calendarRank(a), calendarRank(b)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Severity.Rank(), b.Severity.Rank()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func calendarRank(r Rule) int {
	if r.Mode == ModeCalendarBased {
		return 0
	}
	return 1
}
