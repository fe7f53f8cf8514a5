// internal/workers/communication/notify-recommendations/config.go
package notifyrecommendations

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	EmailEnabled bool          `mapstructure:"email_enabled"`
	SMSEnabled   bool          `mapstructure:"sms_enabled"`
	FromEmail    string        `mapstructure:"from_email"`
	SMSSenderID  string        `mapstructure:"sms_sender_id"`
	// TopResults caps how many programs the notification body lists.
	TopResults int `mapstructure:"top_results"`
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		EmailEnabled: true,
		SMSEnabled:   false,
		FromEmail:    "noreply@example.com",
		SMSSenderID:  "IMMIGRATE",
		TopResults:   3,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.EmailEnabled && c.FromEmail == "" {
		return fmt.Errorf("from_email is required when email is enabled")
	}
	if c.TopResults <= 0 {
		return fmt.Errorf("top_results must be positive")
	}
	return nil
}
