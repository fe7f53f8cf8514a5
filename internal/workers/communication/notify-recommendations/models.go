// internal/workers/communication/notify-recommendations/models.go
package notifyrecommendations

import (
	"time"

	"immigration-workers/internal/models"
)

type Input struct {
	UserID      string `json:"userId"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	// Channels selects delivery: "email", "sms". Empty means every channel
	// that is both enabled and addressable.
	Channels []string `json:"channels,omitempty"`

	Recommendations *models.RecommendationSet `json:"recommendations"`
}

type ChannelResult struct {
	Channel   string `json:"channel"`
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Output struct {
	Success bool            `json:"success"`
	Results []ChannelResult `json:"results"`
	SentAt  time.Time       `json:"sentAt"`
}
