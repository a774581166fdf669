package handler

import (
	"time"

	"altar/internal/law"
	"altar/internal/law/service"
	"altar/internal/observance"
)

// RuleResponse is the display form of a catalog rule.
type RuleResponse struct {
	ID                int      `json:"id"`
	Title             string   `json:"title"`
	Citation          string   `json:"citation"`
	Category          string   `json:"category"`
	Severity          string   `json:"severity"`
	Tribes            []string `json:"tribes"`
	Sex               string   `json:"sex"`
	MinAge            int      `json:"min_age"`
	MaxAge            int      `json:"max_age"`
	LandRequired      bool     `json:"land_required"`
	TempleRequired    bool     `json:"temple_required"`
	Mode              string   `json:"mode"`
	Authority         string   `json:"authority,omitempty"`
	DivineIntent      string   `json:"divine_intent,omitempty"`
	PropheticTheme    string   `json:"prophetic_theme,omitempty"`
	ModernApplication string   `json:"modern_application,omitempty"`
	Penalty           string   `json:"penalty,omitempty"`
}

func toRuleResponse(r law.Rule) RuleResponse {
	tribes := []string{"All"}
	if !r.Tribes.IsAll() {
		tribes = tribes[:0]
		for _, t := range r.Tribes.Tribes() {
			tribes = append(tribes, string(t))
		}
	}
	return RuleResponse{
		ID:                r.ID,
		Title:             r.Title,
		Citation:          r.Citation,
		Category:          string(r.Category),
		Severity:          string(r.Severity),
		Tribes:            tribes,
		Sex:               r.Sex.String(),
		MinAge:            r.MinAge,
		MaxAge:            r.MaxAge,
		LandRequired:      r.LandRequired,
		TempleRequired:    r.TempleRequired,
		Mode:              string(r.Mode),
		Authority:         string(r.Authority),
		DivineIntent:      r.DivineIntent,
		PropheticTheme:    r.PropheticTheme,
		ModernApplication: r.ModernApplication,
		Penalty:           r.Penalty,
	}
}

func toRuleResponses(rules []law.Rule) []RuleResponse {
	out := make([]RuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, toRuleResponse(r))
	}
	return out
}

type ContextResponse struct {
	Tribe    string `json:"tribe"`
	Sex      string `json:"sex"`
	Age      int    `json:"age"`
	Location string `json:"location"`
	Feast    string `json:"feast"`
}

type CountsResponse struct {
	Active   int `json:"active"`
	Training int `json:"training"`
	Dormant  int `json:"dormant"`
	Inactive int `json:"inactive"`
}

// ProtocolResponse is the daily protocol with the snapshot it came from.
type ProtocolResponse struct {
	Context        ContextResponse `json:"context"`
	Primary        RuleResponse    `json:"primary"`
	Supporting     []RuleResponse  `json:"supporting"`
	Fallback       bool            `json:"fallback"`
	Counts         CountsResponse  `json:"counts"`
	CatalogVersion string          `json:"catalog_version"`
	EvaluatedAt    time.Time       `json:"evaluated_at"`
	Brief          string          `json:"brief"`
}

func toProtocolResponse(res *service.ProtocolResult) ProtocolResponse {
	uc, p := res.Context, res.Protocol
	return ProtocolResponse{
		Context: ContextResponse{
			Tribe:    string(uc.Tribe),
			Sex:      string(uc.Sex),
			Age:      uc.Age,
			Location: string(uc.Location),
			Feast:    uc.Feast.String(),
		},
		Primary:    toRuleResponse(p.Primary),
		Supporting: toRuleResponses(p.Supporting),
		Fallback:   p.Fallback,
		Counts: CountsResponse{
			Active:   p.ActiveCount,
			Training: p.TrainingCount,
			Dormant:  p.DormantCount,
			Inactive: p.InactiveCount,
		},
		CatalogVersion: res.CatalogVersion,
		EvaluatedAt:    res.EvaluatedAt,
		Brief:          res.Brief,
	}
}

type ScoreResponse struct {
	UserID       string     `json:"user_id"`
	Total        int        `json:"total"`
	Observances  int        `json:"observances"`
	Tier         string     `json:"tier"`
	TierLabel    string     `json:"tier_label"`
	Progress     float64    `json:"progress"`
	LastRecorded *time.Time `json:"last_recorded,omitempty"`
}

func toScoreResponse(s observance.Score) ScoreResponse {
	resp := ScoreResponse{
		UserID:      s.UserID,
		Total:       s.Total,
		Observances: s.Observances,
		Tier:        string(s.Tier),
		TierLabel:   s.Tier.Label(),
		Progress:    s.Progress,
	}
	if !s.LastRecorded.IsZero() {
		t := s.LastRecorded
		resp.LastRecorded = &t
	}
	return resp
}

type TodayResponse struct {
	ProtocolResponse
	Score         ScoreResponse `json:"score"`
	ObservedToday []int         `json:"observed_today"`
}

type ObservanceResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	RuleID     int       `json:"rule_id"`
	Points     int       `json:"points"`
	Day        string    `json:"day"`
	RecordedAt time.Time `json:"recorded_at"`
}

func toObservanceResponse(o *observance.Observance) ObservanceResponse {
	return ObservanceResponse{
		ID:         o.ID,
		UserID:     o.UserID,
		RuleID:     o.RuleID,
		Points:     o.Points,
		Day:        o.Day,
		RecordedAt: o.RecordedAt,
	}
}

type HistoryResponse struct {
	Observances []ObservanceResponse `json:"observances"`
	Total       int                  `json:"total"`
}

type SearchResponse struct {
	Laws  []RuleResponse `json:"laws"`
	Total int            `json:"total"`
}

type CatalogResponse struct {
	Version    string         `json:"version"`
	Rules      int            `json:"rules"`
	ByCategory map[string]int `json:"by_category"`
}

func toCatalogResponse(c service.CatalogSummary) CatalogResponse {
	by := make(map[string]int, len(c.ByCategory))
	for cat, n := range c.ByCategory {
		by[string(cat)] = n
	}
	return CatalogResponse{Version: c.Version, Rules: c.Rules, ByCategory: by}
}
