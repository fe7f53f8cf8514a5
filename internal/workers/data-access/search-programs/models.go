// internal/workers/data-access/search-programs/models.go
package searchprograms

import "immigration-workers/internal/models"

type Input struct {
	Keywords  string   `json:"keywords,omitempty"`
	Countries []string `json:"countries,omitempty"`
	Category  string   `json:"category,omitempty"`
	MaxFees   float64  `json:"maxFees,omitempty"`
	From      int      `json:"from,omitempty"`
	Size      int      `json:"size,omitempty"`
}

type Output struct {
	Programs  []models.Program `json:"programs"`
	TotalHits int              `json:"totalHits"`
	Took      int              `json:"took"`
}
