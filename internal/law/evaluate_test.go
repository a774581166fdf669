package law

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eligible returns an always-active rule that every subject passes.
func eligible(id int, opts ...func(*Rule)) Rule {
	r := Rule{
		ID:        id,
		Title:     fmt.Sprintf("Law %d", id),
		Citation:  "Exodus 20",
		Category:  CategoryIdentity,
		Severity:  SeverityCommand,
		Tribes:    AllTribes(),
		Sex:       BothSexes(),
		MinAge:    0,
		MaxAge:    MaxAge,
		Mode:      ModeAlways,
		Authority: AuthorityIndividual,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func withSeverity(s Severity) func(*Rule) { return func(r *Rule) { r.Severity = s } }
func withMode(m ActivationMode) func(*Rule) { return func(r *Rule) { r.Mode = m } }
func withTribes(ts TribeSet) func(*Rule) { return func(r *Rule) { r.Tribes = ts } }
func withSex(c SexConstraint) func(*Rule) { return func(r *Rule) { r.Sex = c } }
func withAges(min, max int) func(*Rule) { return func(r *Rule) { r.MinAge, r.MaxAge = min, max } }
func withLand() func(*Rule) { return func(r *Rule) { r.LandRequired = true } }
func withTemple() func(*Rule) { return func(r *Rule) { r.TempleRequired = true } }
func withTitle(title, citation string) func(*Rule) {
	return func(r *Rule) { r.Title, r.Citation = title, citation }
}

func judahMan(age int) UserContext {
	return UserContext{Tribe: TribeJudah, Sex: SexMale, Age: age, Location: LocationExile, Feast: NoFeast}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		ctx     UserContext
		rule    Rule
		want    Status
		visible bool
	}{
		{"below min age is hidden", judahMan(12), eligible(1, withAges(13, 120)), "", false},
		{"above max age is hidden", judahMan(51), eligible(1, withAges(20, 50)), "", false},
		{"age bounds are inclusive", judahMan(50), eligible(1, withAges(20, 50)), StatusActive, true},
		{"sex mismatch is hidden", judahMan(30), eligible(1, withSex(OnlySex(SexFemale))), "", false},
		{"sex match passes", judahMan(30), eligible(1, withSex(OnlySex(SexMale))), StatusActive, true},
		{"land rule in exile is dormant", judahMan(30), eligible(1, withLand()), StatusDormant, true},
		{"land rule in land is active", UserContext{Tribe: TribeJudah, Sex: SexMale, Age: 30, Location: LocationInLand}, eligible(1, withLand()), StatusActive, true},
		{"temple rule is training", judahMan(30), eligible(1, withTemple()), StatusTraining, true},
		{"land precedes temple in exile", judahMan(30), eligible(1, withLand(), withTemple()), StatusDormant, true},
		{"calendar without feast is inactive", judahMan(30), eligible(1, withMode(ModeCalendarBased)), StatusInactive, true},
		{"dormant mode is dormant", judahMan(30), eligible(1, withMode(ModeDormant)), StatusDormant, true},
		{"always with other tribe is inactive", judahMan(30), eligible(1, withTribes(TribesOf(TribeLevi))), StatusInactive, true},
		{"always with member tribe is active", judahMan(30), eligible(1, withTribes(TribesOf(TribeLevi, TribeJudah))), StatusActive, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, visible := Resolve(tt.ctx, tt.rule)
			assert.Equal(t, tt.visible, visible)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_TribeOnlyGatesAlwaysMode(t *testing.T) {
	levites := TribesOf(TribeLevi)
	ctx := judahMan(35)
	ctx.Feast = "Passover"

	calendar, _ := Resolve(ctx, eligible(1, withMode(ModeCalendarBased), withTribes(levites)))
	conditional, _ := Resolve(ctx, eligible(2, withMode(ModeConditional), withTribes(levites)))
	dormant, _ := Resolve(ctx, eligible(3, withMode(ModeDormant), withTribes(levites)))

	assert.Equal(t, StatusActive, calendar)
	assert.Equal(t, StatusActive, conditional)
	assert.Equal(t, StatusDormant, dormant)
}

func TestResolve_LandPrecedence(t *testing.T) {
	for _, mode := range []ActivationMode{ModeAlways, ModeCalendarBased, ModeConditional, ModeDormant} {
		t.Run(string(mode), func(t *testing.T) {
			ctx := judahMan(40)
			ctx.Feast = "Tabernacles"
			got, ok := Resolve(ctx, eligible(1, withLand(), withMode(mode)))
			require.True(t, ok)
			assert.Equal(t, StatusDormant, got)
		})
	}
}

func TestResolve_TemplePrecedence(t *testing.T) {
	for _, mode := range []ActivationMode{ModeAlways, ModeCalendarBased, ModeConditional, ModeDormant} {
		for _, tribes := range []TribeSet{AllTribes(), TribesOf(TribeLevi)} {
			t.Run(fmt.Sprintf("%s/all=%t", mode, tribes.IsAll()), func(t *testing.T) {
				ctx := UserContext{Tribe: TribeJudah, Sex: SexFemale, Age: 45, Location: LocationInLand, Feast: "Passover"}
				got, ok := Resolve(ctx, eligible(1, withTemple(), withLand(), withMode(mode), withTribes(tribes)))
				require.True(t, ok)
				assert.Equal(t, StatusTraining, got)
			})
		}
	}
}

func TestEvaluate_Scenarios(t *testing.T) {
	t.Run("equal rank and severity falls back to smallest id", func(t *testing.T) {
		catalog := []Rule{
			eligible(4, withSeverity(SeverityJudgment)),
			eligible(1, withSeverity(SeverityJudgment)),
		}
		p := Evaluate(judahMan(30), catalog)

		assert.Equal(t, 1, p.Primary.ID)
		require.Len(t, p.Supporting, 1)
		assert.Equal(t, 4, p.Supporting[0].ID)
		assert.Equal(t, 2, p.ActiveCount)
		assert.False(t, p.Fallback)
	})

	t.Run("calendar rule outranks a higher severity", func(t *testing.T) {
		catalog := []Rule{
			eligible(1, withSeverity(SeverityJudgment)),
			eligible(18, withSeverity(SeverityCommand), withMode(ModeCalendarBased)),
		}
		ctx := judahMan(30)
		ctx.Feast = "Passover"
		p := Evaluate(ctx, catalog)

		assert.Equal(t, 18, p.Primary.ID)
		require.Len(t, p.Supporting, 1)
		assert.Equal(t, 1, p.Supporting[0].ID)
	})

	t.Run("land rule in exile is dormant", func(t *testing.T) {
		p := Evaluate(judahMan(30), []Rule{eligible(17, withLand())})
		assert.Equal(t, 1, p.DormantCount)
		assert.Zero(t, p.ActiveCount)
		assert.True(t, p.Fallback)
	})

	t.Run("temple short-circuits a matching feast", func(t *testing.T) {
		ctx := judahMan(30)
		ctx.Feast = "Passover"
		p := Evaluate(ctx, []Rule{eligible(107, withTemple(), withMode(ModeCalendarBased))})
		assert.Equal(t, 1, p.TrainingCount)
		assert.Zero(t, p.ActiveCount)
	})

	t.Run("conditional threshold is exclusive at 30", func(t *testing.T) {
		catalog := []Rule{eligible(24, withMode(ModeConditional))}

		young := Evaluate(judahMan(25), catalog)
		assert.Zero(t, young.ActiveCount)
		assert.Equal(t, 1, young.InactiveCount)

		atThreshold := Evaluate(judahMan(30), catalog)
		assert.Zero(t, atThreshold.ActiveCount)

		mature := Evaluate(judahMan(35), catalog)
		assert.Equal(t, 1, mature.ActiveCount)
		assert.Equal(t, 24, mature.Primary.ID)
	})
}

func TestEvaluate_Fallback(t *testing.T) {
	catalog := []Rule{
		eligible(9, withSex(OnlySex(SexFemale))),
		eligible(3, withMode(ModeDormant)),
		eligible(5, withTemple()),
	}
	p := Evaluate(judahMan(30), catalog)

	assert.True(t, p.Fallback)
	assert.Equal(t, 9, p.Primary.ID, "fallback is the first catalog entry even when it is hidden")
	assert.Empty(t, p.Supporting)
	assert.NotNil(t, p.Supporting)
	assert.Equal(t, 1, p.DormantCount)
	assert.Equal(t, 1, p.TrainingCount)
}

func TestEvaluate_EmptyCatalogReturnsZeroProtocol(t *testing.T) {
	p := Evaluate(judahMan(30), nil)
	assert.Zero(t, p.Primary.ID)
	assert.False(t, p.Fallback)
	assert.Empty(t, p.Supporting)
}

func TestEvaluate_SupportingIsCappedAtThree(t *testing.T) {
	var catalog []Rule
	for id := 10; id > 0; id-- {
		catalog = append(catalog, eligible(id))
	}
	p := Evaluate(judahMan(30), catalog)

	assert.Equal(t, 1, p.Primary.ID)
	require.Len(t, p.Supporting, MaxSupporting)
	assert.Equal(t, []int{2, 3, 4}, ids(p.Supporting))
	assert.Equal(t, 10, p.ActiveCount)
}

func TestEvaluate_ExcludedRulesAreNotCounted(t *testing.T) {
	catalog := []Rule{
		eligible(1),
		eligible(2, withAges(0, 12), withTemple()),
		eligible(3, withSex(OnlySex(SexFemale)), withLand()),
		eligible(4, withAges(60, 120), withMode(ModeDormant)),
	}
	p := Evaluate(judahMan(30), catalog)

	assert.Equal(t, 1, p.ActiveCount)
	assert.Zero(t, p.TrainingCount)
	assert.Zero(t, p.DormantCount)
	assert.Zero(t, p.InactiveCount)
	assert.Equal(t, 1, p.Primary.ID)
	assert.Empty(t, p.Supporting)
}

func TestEvaluate_RankingOrderInvariant(t *testing.T) {
	catalog := []Rule{
		eligible(40, withSeverity(SeverityInstruction)),
		eligible(7, withSeverity(SeverityCommand)),
		eligible(22, withSeverity(SeverityJudgment)),
		eligible(31, withSeverity(SeverityInstruction), withMode(ModeCalendarBased)),
		eligible(2, withSeverity(SeverityCommand)),
		eligible(12, withSeverity(SeverityJudgment)),
	}
	ctx := judahMan(30)
	ctx.Feast = "Shavuot"
	p := Evaluate(ctx, catalog)

	seq := append([]Rule{p.Primary}, p.Supporting...)
	assert.Equal(t, []int{31, 12, 22, 2}, ids(seq))
	for i := 1; i < len(seq); i++ {
		assert.LessOrEqual(t, CompareRank(seq[i-1], seq[i]), 0, "entry %d out of order", i)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	catalog := sampleCatalog()
	ctx := UserContext{Tribe: TribeLevi, Sex: SexMale, Age: 33, Location: LocationExile, Feast: "Passover"}

	first := Evaluate(ctx, catalog)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, Evaluate(ctx, catalog), cmp.AllowUnexported(TribeSet{}, SexConstraint{})); diff != "" {
			t.Fatalf("evaluation %d differs (-first +got):\n%s", i, diff)
		}
	}
}

func TestEvaluate_DoesNotMutateCatalog(t *testing.T) {
	catalog := sampleCatalog()
	before := ids(catalog)

	_ = Evaluate(judahMan(40), catalog)

	assert.Equal(t, before, ids(catalog))
}

func TestRank_StableForDuplicateIDs(t *testing.T) {
	a := eligible(5, withTitle("first", "a"))
	b := eligible(5, withTitle("second", "b"))
	rules := []Rule{a, b}
	Rank(rules)
	assert.Equal(t, "first", rules[0].Title)
	assert.Equal(t, "second", rules[1].Title)
}

func TestBrief(t *testing.T) {
	ctx := judahMan(30)
	ctx.Feast = "Passover"
	p := Evaluate(ctx, []Rule{
		eligible(1, withTitle("No Other Gods", "Exodus 20:3"), withSeverity(SeverityJudgment)),
		eligible(18, withTitle("Assemble for the Feasts", "Deuteronomy 16:16"), withMode(ModeCalendarBased)),
	})

	brief := Brief(ctx, p)
	assert.Contains(t, brief, "Subject: Male of Judah, age 30, exile, keeping Passover.")
	assert.Contains(t, brief, "Primary: #18 Assemble for the Feasts (Deuteronomy 16:16) [command]")
	assert.Contains(t, brief, "Supporting 1: #1 No Other Gods (Exodus 20:3) [judgment]")
	assert.Equal(t, brief, Brief(ctx, p))
}

func sampleCatalog() []Rule {
	return []Rule{
		eligible(1, withSeverity(SeverityJudgment)),
		eligible(7, withSex(OnlySex(SexMale)), withAges(13, 120)),
		eligible(8, withTribes(TribesOf(TribeLevi, TribeJudah)), withSex(OnlySex(SexMale))),
		eligible(17, withTribes(TribesOf(TribeJudah)), withLand(), withSeverity(SeverityInstruction)),
		eligible(18, withMode(ModeCalendarBased), withSex(OnlySex(SexMale))),
		eligible(24, withMode(ModeConditional)),
		eligible(107, withLand(), withTemple()),
		eligible(110, withTribes(TribesOf(TribeLevi)), withTemple(), withAges(20, 50), withSeverity(SeverityJudgment)),
		eligible(116, withSeverity(SeverityInstruction)),
		eligible(120, withSeverity(SeverityJudgment)),
	}
}

func ids(rules []Rule) []int {
	out := make([]int, len(rules))
	for i, r := range rules {
		out[i] = r.ID
	}
	return out
}
