// internal/workers/recommendation/match-programs/models.go
package matchprograms

import "immigration-workers/internal/models"

type Input struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId,omitempty"`

	// Inline profile takes precedence over a store lookup by userId.
	Profile *models.ProfileAnalysis `json:"profile,omitempty"`

	// Inline catalog slice takes precedence over the full catalog fetch.
	Programs []models.Program `json:"programs,omitempty"`

	Preferences models.Preferences `json:"preferences,omitempty"`
}

type Output struct {
	Matches       []models.MatchResult `json:"matches"`
	TotalPrograms int                  `json:"totalPrograms"`
	MatchedCount  int                  `json:"matchedCount"`
}
