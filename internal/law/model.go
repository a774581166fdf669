// Package law holds the law activation domain: the rule catalog model, the
// subject profile a catalog is evaluated against, and the pure evaluator that
// turns both into a daily protocol.
//
// Domain purity: nothing in this package performs I/O, reads the clock, or
// keeps package-level mutable state. Catalogs are passed in explicitly so
// callers can swap them without touching the evaluator.
package law

import "slices"

// MaxAge is the inclusive upper bound for rule age ranges and subject ages.
const MaxAge = 120

// Severity orders rules for selection. Judgment outranks command, which
// outranks instruction.
type Severity string

const (
	SeverityJudgment    Severity = "judgment"
	SeverityCommand     Severity = "command"
	SeverityInstruction Severity = "instruction"
)

var severityRanks = map[Severity]int{
	SeverityJudgment:    0,
	SeverityCommand:     1,
	SeverityInstruction: 2,
}

// Rank returns the sort rank of the severity; lower ranks sort first.
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return len(severityRanks)
}

func (s Severity) String() string { return string(s) }

// ActivationMode selects how an eligible rule becomes active.
type ActivationMode string

const (
	ModeAlways        ActivationMode = "always"
	ModeCalendarBased ActivationMode = "calendar_based"
	ModeConditional   ActivationMode = "conditional"
	ModeDormant       ActivationMode = "dormant"
)

func (m ActivationMode) String() string { return string(m) }

// Category is an informational grouping tag. The evaluator ignores it.
type Category string

const (
	CategoryIdentity        Category = "Identity"
	CategoryDiet            Category = "Diet"
	CategoryAppointedTimes  Category = "AppointedTimes"
	CategoryGovernance      Category = "Governance"
	CategorySexualOrder     Category = "SexualOrder"
	CategoryPriestlyService Category = "PriestlyService"
	CategoryWarJustice      Category = "WarJustice"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{
		CategoryIdentity,
		CategoryDiet,
		CategoryAppointedTimes,
		CategoryGovernance,
		CategorySexualOrder,
		CategoryPriestlyService,
		CategoryWarJustice,
	}
}

// Authority names the scope a rule is carried out at. Informational only.
type Authority string

const (
	AuthorityIndividual Authority = "individual"
	AuthorityHousehold  Authority = "household"
	AuthorityTribal     Authority = "tribal"
	AuthorityNational   Authority = "national"
	AuthorityPriestly   Authority = "priestly"
)

// Tribe identifies one of the tribes a subject can belong to.
type Tribe string

const (
	TribeReuben   Tribe = "Reuben"
	TribeSimeon   Tribe = "Simeon"
	TribeLevi     Tribe = "Levi"
	TribeJudah    Tribe = "Judah"
	TribeDan      Tribe = "Dan"
	TribeNaphtali Tribe = "Naphtali"
	TribeGad      Tribe = "Gad"
	TribeAsher    Tribe = "Asher"
	TribeIssachar Tribe = "Issachar"
	TribeZebulun  Tribe = "Zebulun"
	TribeJoseph   Tribe = "Joseph"
	TribeEphraim  Tribe = "Ephraim"
	TribeManasseh Tribe = "Manasseh"
	TribeBenjamin Tribe = "Benjamin"
	TribeUnknown  Tribe = "Exile / Seeking"
)

// Tribes lists every tribe, including the unknown one, in catalog order.
func Tribes() []Tribe {
	return []Tribe{
		TribeReuben, TribeSimeon, TribeLevi, TribeJudah, TribeDan,
		TribeNaphtali, TribeGad, TribeAsher, TribeIssachar, TribeZebulun,
		TribeJoseph, TribeEphraim, TribeManasseh, TribeBenjamin, TribeUnknown,
	}
}

// TribeSet is the tribe constraint of a rule: either every tribe or an
// explicit non-empty set. The zero value constrains to no tribe at all and
// fails catalog validation.
type TribeSet struct {
	all    bool
	tribes []Tribe
}

// AllTribes returns the unconstrained tribe set.
func AllTribes() TribeSet {
	return TribeSet{all: true}
}

// TribesOf returns a set restricted to the given tribes. Duplicates are kept
// out; order is preserved.
func TribesOf(tribes ...Tribe) TribeSet {
	out := make([]Tribe, 0, len(tribes))
	for _, t := range tribes {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return TribeSet{tribes: out}
}

// IsAll reports whether the set admits every tribe.
func (s TribeSet) IsAll() bool { return s.all }

// IsEmpty reports whether the set admits no tribe.
func (s TribeSet) IsEmpty() bool { return !s.all && len(s.tribes) == 0 }

// Includes reports whether the tribe is admitted by the set.
func (s TribeSet) Includes(t Tribe) bool {
	return s.all || slices.Contains(s.tribes, t)
}

// Tribes returns a copy of the explicit members; nil for the unconstrained set.
func (s TribeSet) Tribes() []Tribe {
	if s.all {
		return nil
	}
	return slices.Clone(s.tribes)
}

// Sex identifies a subject's sex.
type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
)

// SexConstraint is the sex constraint of a rule. The zero value admits both.
type SexConstraint struct {
	only Sex
}

// BothSexes returns the unconstrained sex constraint.
func BothSexes() SexConstraint { return SexConstraint{} }

// OnlySex restricts a rule to one sex.
func OnlySex(s Sex) SexConstraint { return SexConstraint{only: s} }

// IsBoth reports whether the constraint admits either sex.
func (c SexConstraint) IsBoth() bool { return c.only == "" }

// Sex returns the restricted sex and true, or "" and false when unconstrained.
func (c SexConstraint) Sex() (Sex, bool) { return c.only, c.only != "" }

// Admits reports whether a subject of the given sex passes the constraint.
func (c SexConstraint) Admits(s Sex) bool { return c.only == "" || c.only == s }

func (c SexConstraint) String() string {
	if c.only == "" {
		return "Both"
	}
	return string(c.only)
}

// Location is where the subject currently lives.
type Location string

const (
	LocationInLand Location = "land"
	LocationExile  Location = "exile"
)

// Feast identifies the appointed feast in effect. NoFeast is the zero value.
type Feast string

// NoFeast means no feast is currently being kept.
const NoFeast Feast = ""

// Active reports whether a feast is in effect.
func (f Feast) Active() bool { return f != NoFeast }

func (f Feast) String() string {
	if f == NoFeast {
		return "None"
	}
	return string(f)
}

// Rule is one catalog entry. Rules are immutable once a catalog is built;
// accessors that expose slices return copies.
type Rule struct {
	ID       int
	Title    string
	Citation string
	Category Category
	Severity Severity

	Tribes TribeSet
	Sex    SexConstraint
	MinAge int
	MaxAge int

	LandRequired   bool
	TempleRequired bool
	Mode           ActivationMode

	// Display fields; never consulted by the evaluator.
	DivineIntent      string
	PropheticTheme    string
	Authority         Authority
	ModernApplication string
	Penalty           string
}

// UserContext is the subject profile a catalog is evaluated against. Build it
// with NewUserContext so enumerants are validated at the boundary.
type UserContext struct {
	Tribe    Tribe
	Sex      Sex
	Age      int
	Location Location
	Feast    Feast
}

// Status is the computed state of a rule for one context.
type Status string

const (
	StatusActive   Status = "active"
	StatusTraining Status = "training"
	StatusDormant  Status = "dormant"
	StatusInactive Status = "inactive"
)

// EvaluatedRule pairs a rule with its status for one evaluation.
type EvaluatedRule struct {
	Rule   Rule
	Status Status
}

// DailyProtocol is the evaluator output: one primary rule, up to
// MaxSupporting ranked supporting rules, and status counts.
type DailyProtocol struct {
	Primary    Rule
	Supporting []Rule

	// Fallback is true when no rule was active and Primary is the first
	// catalog entry.
	Fallback bool

	ActiveCount   int
	TrainingCount int
	DormantCount  int
	InactiveCount int
}
