// internal/workers/recommendation/analyze-gaps/models.go
package analyzegaps

import "immigration-workers/internal/models"

type Input struct {
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`

	Profile *models.ProfileAnalysis `json:"profile,omitempty"`
	Matches []models.MatchResult    `json:"matches"`
}

type Output struct {
	Matches       []models.MatchResult `json:"matches"`
	AnalyzedCount int                  `json:"analyzedCount"`
}
