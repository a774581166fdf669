package law

import (
	"fmt"
	"strings"

	dErrors "altar/pkg/domain-errors"
	pstrings "altar/pkg/platform/strings"
)

// Parse functions construct domain values from external input (HTTP bodies,
// catalog files, CLI flags). Matching is case-insensitive and ignores
// surrounding whitespace. Unknown values are rejected with CodeValidation so
// the evaluator never has to handle them.

// sentinels naming "no constraint" in external input.
const (
	allTribesLiteral = "all"
	bothSexesLiteral = "both"
	noFeastLiteral   = "none"
)

// ParseTribe parses a tribe name. "Unknown" is accepted for the seeking tribe.
func ParseTribe(s string) (Tribe, error) {
	key := normalize(s)
	if key == "unknown" || key == "seeking" {
		return TribeUnknown, nil
	}
	for _, t := range Tribes() {
		if normalize(string(t)) == key {
			return t, nil
		}
	}
	return "", invalid("tribe", s)
}

// ParseTribeSet parses a rule's tribe constraint: "All" or a non-empty list.
func ParseTribeSet(values []string) (TribeSet, error) {
	values = pstrings.DedupeAndTrim(values)
	if len(values) == 1 && normalize(values[0]) == allTribesLiteral {
		return AllTribes(), nil
	}
	if len(values) == 0 {
		return TribeSet{}, dErrors.New(dErrors.CodeValidation, "tribes must be \"All\" or a non-empty list")
	}
	tribes := make([]Tribe, 0, len(values))
	for _, v := range values {
		t, err := ParseTribe(v)
		if err != nil {
			return TribeSet{}, err
		}
		tribes = append(tribes, t)
	}
	return TribesOf(tribes...), nil
}

// ParseSex parses a subject's sex.
func ParseSex(s string) (Sex, error) {
	switch normalize(s) {
	case "male":
		return SexMale, nil
	case "female":
		return SexFemale, nil
	}
	return "", invalid("sex", s)
}

// ParseSexConstraint parses a rule's sex constraint: "Both" or one sex.
func ParseSexConstraint(s string) (SexConstraint, error) {
	if normalize(s) == bothSexesLiteral {
		return BothSexes(), nil
	}
	sex, err := ParseSex(s)
	if err != nil {
		return SexConstraint{}, err
	}
	return OnlySex(sex), nil
}

// ParseLocation parses the subject's location.
func ParseLocation(s string) (Location, error) {
	switch normalize(s) {
	case "land", "in_land", "in land":
		return LocationInLand, nil
	case "exile":
		return LocationExile, nil
	}
	return "", invalid("location", s)
}

// ParseFeast parses the current feast. Empty input and "None" mean no feast.
func ParseFeast(s string) (Feast, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || normalize(trimmed) == noFeastLiteral {
		return NoFeast, nil
	}
	if len(trimmed) > 64 {
		return NoFeast, dErrors.New(dErrors.CodeValidation, "feast must be at most 64 characters")
	}
	return Feast(trimmed), nil
}

// ParseSeverity parses a rule severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(normalize(s))
	if _, ok := severityRanks[sev]; !ok {
		return "", invalid("severity", s)
	}
	return sev, nil
}

// ParseActivationMode parses a rule activation mode.
func ParseActivationMode(s string) (ActivationMode, error) {
	switch m := ActivationMode(normalize(s)); m {
	case ModeAlways, ModeCalendarBased, ModeConditional, ModeDormant:
		return m, nil
	}
	return "", invalid("activation mode", s)
}

// ParseCategory parses a rule category.
func ParseCategory(s string) (Category, error) {
	key := normalize(s)
	for _, c := range Categories() {
		if normalize(string(c)) == key {
			return c, nil
		}
	}
	return "", invalid("category", s)
}

// ParseAuthority parses a rule authority level.
func ParseAuthority(s string) (Authority, error) {
	switch a := Authority(normalize(s)); a {
	case AuthorityIndividual, AuthorityHousehold, AuthorityTribal, AuthorityNational, AuthorityPriestly:
		return a, nil
	}
	return "", invalid("authority", s)
}

// ParseStatus parses a computed law status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(normalize(s)); st {
	case StatusActive, StatusTraining, StatusDormant, StatusInactive:
		return st, nil
	}
	return "", invalid("status", s)
}

// NewUserContext validates and assembles a subject profile from raw input.
func NewUserContext(tribe, sex string, age int, location, feast string) (UserContext, error) {
	t, err := ParseTribe(tribe)
	if err != nil {
		return UserContext{}, err
	}
	sx, err := ParseSex(sex)
	if err != nil {
		return UserContext{}, err
	}
	if age < 0 || age > MaxAge {
		return UserContext{}, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("age must be between 0 and %d", MaxAge))
	}
	loc, err := ParseLocation(location)
	if err != nil {
		return UserContext{}, err
	}
	f, err := ParseFeast(feast)
	if err != nil {
		return UserContext{}, err
	}
	return UserContext{Tribe: t, Sex: sx, Age: age, Location: loc, Feast: f}, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func invalid(field, value string) error {
	return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown %s %q", field, value))
}
