package service

import (
	"time"

	"altar/internal/law"
	"altar/internal/observance"
)

// ProtocolResult is one evaluation together with the snapshot it ran against.
type ProtocolResult struct {
	Context        law.UserContext
	Protocol       law.DailyProtocol
	CatalogVersion string
	EvaluatedAt    time.Time
	// Brief is the plain-text rendering handed to the narration service.
	Brief string
}

// TodayResult is the daily view for a known user: the protocol, their
// alignment score, and which surfaced rules they already kept today.
type TodayResult struct {
	ProtocolResult
	Score         observance.Score
	ObservedToday []int
}

// CatalogSummary describes the published catalog.
type CatalogSummary struct {
	Version    string
	Rules      int
	ByCategory map[law.Category]int
}
