// internal/workers/recommendation/generate-recommendations/models.go
package generaterecommendations

import "immigration-workers/internal/models"

type Input struct {
	UserID    string                       `json:"userId"`
	SessionID string                       `json:"sessionId,omitempty"`
	Options   models.RecommendationOptions `json:"options,omitempty"`
}

type Output struct {
	Recommendations *models.RecommendationSet `json:"recommendations"`
}
