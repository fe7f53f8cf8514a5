// internal/workers/recommendation/analyze-gaps/config.go
package analyzegaps

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
