package law

import (
	"fmt"
	"strings"
)

// Brief renders the protocol as the plain-text context handed to the
// generative narration service. The output is deterministic for a given
// context and protocol.
func Brief(ctx UserContext, p DailyProtocol) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s of %s, age %d, %s", ctx.Sex, ctx.Tribe, ctx.Age, ctx.Location)
	if ctx.Feast.Active() {
		fmt.Fprintf(&b, ", keeping %s", ctx.Feast)
	}
	b.WriteString(".\n")

	label := "Primary"
	if p.Fallback {
		label = "Primary (no active law, showing first in catalog)"
	}
	fmt.Fprintf(&b, "%s: #%d %s (%s) [%s]\n", label, p.Primary.ID, p.Primary.Title, p.Primary.Citation, p.Primary.Severity)

	for i, r := range p.Supporting {
		fmt.Fprintf(&b, "Supporting %d: #%d %s (%s) [%s]\n", i+1, r.ID, r.Title, r.Citation, r.Severity)
	}
	fmt.Fprintf(&b, "Active: %d, training: %d, dormant: %d.", p.ActiveCount, p.TrainingCount, p.DormantCount)
	return b.String()
}
