// Package observance records which rules a user kept and derives their
// alignment score.
package observance

import (
	"fmt"
	"strings"
	"time"

	dErrors "altar/pkg/domain-errors"
)

const (
	DefaultPoints = 5
	MinPoints     = 1
	MaxPoints     = 100

	maxUserIDLength = 128
	dayLayout       = time.DateOnly

	// progressCeiling is the score at which progress reads 100%.
	progressCeiling = 250
)

// Observance is one kept rule. A user can record a given rule once per UTC day.
type Observance struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	RuleID     int       `json:"rule_id"`
	Points     int       `json:"points"`
	Day        string    `json:"day"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewObservance validates and builds an observance recorded at now.
func NewObservance(id, userID string, ruleID, points int, now time.Time) (*Observance, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	if len(userID) > maxUserIDLength {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("user_id must be at most %d characters", maxUserIDLength))
	}
	if ruleID <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "rule_id must be positive")
	}
	if points < MinPoints || points > MaxPoints {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("points must be between %d and %d", MinPoints, MaxPoints))
	}
	now = now.UTC()
	return &Observance{
		ID:         id,
		UserID:     userID,
		RuleID:     ruleID,
		Points:     points,
		Day:        DayOf(now),
		RecordedAt: now,
	}, nil
}

// DayOf returns the UTC calendar day key for t.
func DayOf(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// Tier is the alignment band a score falls into.
type Tier string

const (
	TierDim     Tier = "Dim"
	TierKindled Tier = "Kindled"
	TierBurning Tier = "Burning"
	TierSealed  Tier = "Sealed"
	TierEternal Tier = "Eternal"
)

var tierLabels = map[Tier]string{
	TierDim:     "Dim (Exile Fog)",
	TierKindled: "Kindled (Awakening)",
	TierBurning: "Burning (Remnant)",
	TierSealed:  "Sealed (Royal Priesthood)",
	TierEternal: "Eternal (Seal Watch)",
}

// Label returns the display name of the tier.
func (t Tier) Label() string {
	if l, ok := tierLabels[t]; ok {
		return l
	}
	return string(t)
}

// TierFor maps a total score to its tier.
func TierFor(score int) Tier {
	switch {
	case score < 20:
		return TierDim
	case score < 50:
		return TierKindled
	case score < 100:
		return TierBurning
	case score < 200:
		return TierSealed
	default:
		return TierEternal
	}
}

// Progress returns the score as a percentage of the progress ceiling, capped
// at 100.
func Progress(score int) float64 {
	if score <= 0 {
		return 0
	}
	return min(float64(score)*100/progressCeiling, 100)
}

// Totals is what a store aggregates for one user.
type Totals struct {
	Points       int
	Observances  int
	LastRecorded time.Time
}

// Score is the alignment summary for a user.
type Score struct {
	UserID       string
	Total        int
	Observances  int
	Tier         Tier
	Progress     float64
	LastRecorded time.Time
}

// NewScore derives the tier and progress from stored totals.
func NewScore(userID string, t Totals) Score {
	return Score{
		UserID:       userID,
		Total:        t.Points,
		Observances:  t.Observances,
		Tier:         TierFor(t.Points),
		Progress:     Progress(t.Points),
		LastRecorded: t.LastRecorded,
	}
}
