package handler

import (
	"strings"

	"altar/internal/law"
	"altar/internal/observance"
	dErrors "altar/pkg/domain-errors"
)

// ProtocolRequest is the subject profile submitted for evaluation.
type ProtocolRequest struct {
	Tribe    string `json:"tribe"`
	Sex      string `json:"sex"`
	Age      *int   `json:"age"`
	Location string `json:"location"`
	Feast    string `json:"feast,omitempty"`

	uc law.UserContext
}

// Validate parses every enumerant so the evaluator only sees valid contexts.
func (r *ProtocolRequest) Validate() error {
	if r.Age == nil {
		return dErrors.New(dErrors.CodeValidation, "age is required")
	}
	uc, err := law.NewUserContext(r.Tribe, r.Sex, *r.Age, r.Location, r.Feast)
	if err != nil {
		return err
	}
	r.uc = uc
	return nil
}

// Context returns the validated subject profile.
func (r *ProtocolRequest) Context() law.UserContext {
	return r.uc
}

// TodayRequest is a ProtocolRequest for a known user.
type TodayRequest struct {
	UserID string `json:"user_id"`
	ProtocolRequest
}

func (r *TodayRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	if r.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	return r.ProtocolRequest.Validate()
}

// ObservanceRequest records that a user kept a law today. Points are
// optional; zero awards the configured default.
type ObservanceRequest struct {
	UserID string `json:"user_id"`
	RuleID int    `json:"rule_id"`
	Points int    `json:"points,omitempty"`
}

func (r *ObservanceRequest) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	if r.UserID == "" {
		return dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	if r.RuleID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "rule_id must be positive")
	}
	if r.Points != 0 && (r.Points < observance.MinPoints || r.Points > observance.MaxPoints) {
		return dErrors.New(dErrors.CodeValidation, "points must be between 1 and 100")
	}
	return nil
}

// parseQuery builds a catalog query from URL parameters. Empty parameters
// match anything.
func parseQuery(text, category, severity, authority string) (law.Query, error) {
	q := law.Query{Text: strings.TrimSpace(text)}
	var err error
	if category != "" {
		if q.Category, err = law.ParseCategory(category); err != nil {
			return law.Query{}, err
		}
	}
	if severity != "" {
		if q.Severity, err = law.ParseSeverity(severity); err != nil {
			return law.Query{}, err
		}
	}
	if authority != "" {
		if q.Authority, err = law.ParseAuthority(authority); err != nil {
			return law.Query{}, err
		}
	}
	return q, nil
}
