// internal/workers/data-access/search-programs/config.go
package searchprograms

import "time"

type Config struct {
	Index      string
	Timeout    time.Duration
	MaxResults int
}

func LoadConfig() *Config {
	return &Config{
		Index:      "immigration-programs",
		Timeout:    10 * time.Second,
		MaxResults: 20,
	}
}
