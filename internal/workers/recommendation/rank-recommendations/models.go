// internal/workers/recommendation/rank-recommendations/models.go
package rankrecommendations

import "immigration-workers/internal/models"

type Input struct {
	Matches     []models.MatchResult `json:"matches"`
	Preferences models.Preferences   `json:"preferences,omitempty"`
	MaxResults  int                  `json:"maxResults,omitempty"`
}

type Output struct {
	Recommendations []models.RankedRecommendation `json:"recommendations"`
	TotalCount      int                           `json:"totalCount"`
}
