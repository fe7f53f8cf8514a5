// internal/recommendation/ranker_test.go
package recommendation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/models"
)

func newTestRanker(t *testing.T) *Ranker {
	return NewRanker(DefaultRankerParams(), logger.NewTestLogger(t))
}

func TestRankRecommendations_NeutralComposite(t *testing.T) {
	r := newTestRanker(t)

	// Without a program payload and without preferences every sub-score except
	// the match score is neutral 50: (90*40 + 50*60)/100 = 66.
	matches := []models.MatchResult{
		{ProgramID: "a", Country: "Canada", Category: "skilled-worker", MatchScore: 90},
		{ProgramID: "b", Country: "Canada", Category: "skilled-worker", MatchScore: 60},
	}

	ranked := r.RankRecommendations(matches, models.Preferences{})
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].ProgramID)
	assert.Equal(t, 66, ranked[0].CompositeScore)
	assert.Equal(t, 54, ranked[1].CompositeScore)

	assert.Equal(t, 90, ranked[0].ScoreComponents.MatchScore)
	assert.Equal(t, 50, ranked[0].ScoreComponents.PreferenceScore)
	assert.Equal(t, 50, ranked[0].ScoreComponents.ProcessingTimeScore)
	assert.Equal(t, 50, ranked[0].ScoreComponents.CostScore)
	assert.Equal(t, 50, ranked[0].ScoreComponents.SuccessScore)
}

func TestRankRecommendations_ProgramAttributesFeedSubScores(t *testing.T) {
	r := newTestRanker(t)

	rate := 0.85
	prog := &models.Program{
		ID: "fast", ProcessingTime: &models.ProcessingTime{Max: 4, Unit: "months"},
		Fees:        &models.Fees{Total: 800},
		SuccessRate: &rate,
	}
	matches := []models.MatchResult{{ProgramID: "fast", Country: "Canada", Category: "skilled-worker", MatchScore: 70, Program: prog}}

	ranked := r.RankRecommendations(matches, models.Preferences{})
	require.Len(t, ranked, 1)

	c := ranked[0].ScoreComponents
	assert.Equal(t, 90, c.ProcessingTimeScore)
	assert.Equal(t, 90, c.CostScore)
	assert.Equal(t, 85, c.SuccessScore)
	// (70*40 + 50*20 + 90*15 + 90*15 + 85*10)/100 = 73.5, rounds up.
	assert.Equal(t, 74, ranked[0].CompositeScore)
}

func TestRankRecommendations_CompositeFromKnownSubScores(t *testing.T) {
	r := newTestRanker(t)

	// Sub-scores 80/70/90/60/50 under the default 40/20/15/15/10 weights:
	// (80*40 + 70*20 + 90*15 + 60*15 + 50*10)/100 = 73.5, rounds up to 74.
	prog := &models.Program{
		ID:             "known",
		ProcessingTime: &models.ProcessingTime{Max: 6, Unit: "months"},
		Fees:           &models.Fees{Total: 2500},
	}
	matches := []models.MatchResult{{ProgramID: "known", Country: "Canada", Category: "skilled-worker", MatchScore: 80, Program: prog}}
	prefs := models.Preferences{Countries: []string{"Canada"}}

	ranked := r.RankRecommendations(matches, prefs)
	require.Len(t, ranked, 1)

	c := ranked[0].ScoreComponents
	assert.Equal(t, 80, c.MatchScore)
	assert.Equal(t, 70, c.PreferenceScore)
	assert.Equal(t, 90, c.ProcessingTimeScore)
	assert.Equal(t, 60, c.CostScore)
	assert.Equal(t, 50, c.SuccessScore)
	assert.Equal(t, 74, ranked[0].CompositeScore)
}

func TestRankRecommendations_ScaledWeightsGiveSameComposite(t *testing.T) {
	// The composite divides by the weight total, so scaling every weight by
	// the same constant must not change any score.
	rate := 0.85
	prog := &models.Program{
		ID:             "fast",
		ProcessingTime: &models.ProcessingTime{Max: 4, Unit: "months"},
		Fees:           &models.Fees{Total: 800},
		SuccessRate:    &rate,
	}
	matches := []models.MatchResult{
		{ProgramID: "fast", Country: "Canada", Category: "skilled-worker", MatchScore: 70, Program: prog},
		{ProgramID: "plain", Country: "Australia", Category: "family", MatchScore: 85},
	}
	prefs := models.Preferences{Countries: []string{"Canada"}}

	scaled := DefaultRankerParams()
	scaled.Weights.Match *= 3
	scaled.Weights.Preference *= 3
	scaled.Weights.ProcessingTime *= 3
	scaled.Weights.Cost *= 3
	scaled.Weights.Success *= 3

	baseline := newTestRanker(t).RankRecommendations(matches, prefs)
	rescaled := NewRanker(scaled, logger.NewTestLogger(t)).RankRecommendations(matches, prefs)

	require.Len(t, baseline, 2)
	require.Len(t, rescaled, 2)
	for i := range baseline {
		assert.Equal(t, baseline[i].ProgramID, rescaled[i].ProgramID)
		assert.Equal(t, baseline[i].CompositeScore, rescaled[i].CompositeScore)
	}
}

func TestRankRecommendations_PreferredCountryWins(t *testing.T) {
	r := newTestRanker(t)

	matches := []models.MatchResult{
		{ProgramID: "ca", Country: "Canada", Category: "skilled-worker", MatchScore: 70},
		{ProgramID: "au", Country: "Australia", Category: "skilled-worker", MatchScore: 70},
	}
	prefs := models.Preferences{Countries: []string{"Australia"}}

	ranked := r.RankRecommendations(matches, prefs)
	require.Len(t, ranked, 2)
	assert.Equal(t, "au", ranked[0].ProgramID)
	assert.Equal(t, 70, ranked[0].ScoreComponents.PreferenceScore)
	assert.Equal(t, 30, ranked[1].ScoreComponents.PreferenceScore)
}

func TestRankRecommendations_TieBreaks(t *testing.T) {
	r := newTestRanker(t)

	matches := []models.MatchResult{
		{ProgramID: "zeta", Country: "Canada", Category: "skilled-worker", MatchScore: 70},
		{ProgramID: "alpha", Country: "Canada", Category: "skilled-worker", MatchScore: 70},
	}

	ranked := r.RankRecommendations(matches, models.Preferences{})
	require.Len(t, ranked, 2)
	assert.Equal(t, ranked[0].CompositeScore, ranked[1].CompositeScore)
	assert.Equal(t, "alpha", ranked[0].ProgramID)
}

func TestWeightsFor_PriorityShift(t *testing.T) {
	r := newTestRanker(t)

	w := r.weightsFor(models.Preferences{PriorityFactors: []string{"processing_time"}})
	assert.Equal(t, float64(25), w.ProcessingTime)
	assert.Equal(t, float64(35), w.Match)
	assert.Equal(t, float64(15), w.Preference)
	assert.Equal(t, float64(15), w.Cost)
	assert.Equal(t, float64(10), w.Success)
}

func TestWeightsFor_SortByShift(t *testing.T) {
	r := newTestRanker(t)

	w := r.weightsFor(models.Preferences{SortBy: "cost"})
	assert.Equal(t, float64(30), w.Cost)
	assert.Equal(t, float64(25), w.Match)

	w = r.weightsFor(models.Preferences{SortBy: "success_rate"})
	assert.Equal(t, float64(25), w.Success)
	assert.Equal(t, float64(25), w.Match)
}

func TestWeightsFor_MinWeightFloor(t *testing.T) {
	r := newTestRanker(t)

	prefs := models.Preferences{
		PriorityFactors: []string{"processing_time", "cost", "success_rate"},
		SortBy:          "processing_time",
	}
	w := r.weightsFor(prefs)
	assert.GreaterOrEqual(t, w.Match, float64(5))
	assert.GreaterOrEqual(t, w.Preference, float64(5))
	assert.Equal(t, float64(5), w.Preference)
}

func TestProcessingTimeScoreSteps(t *testing.T) {
	assert.Equal(t, 50, processingTimeScore(nil))
	assert.Equal(t, 50, processingTimeScore(&models.Program{}))

	tests := []struct {
		max  int
		unit string
		want int
	}{
		{3, "months", 100},
		{6, "months", 90},
		{12, "months", 70},
		{8, "weeks", 100},
		{2, "years", 30},
		{3, "years", 10},
	}
	for _, tt := range tests {
		prog := &models.Program{ProcessingTime: &models.ProcessingTime{Max: tt.max, Unit: tt.unit}}
		assert.Equal(t, tt.want, processingTimeScore(prog), "%d %s", tt.max, tt.unit)
	}
}

func TestCostScoreSteps(t *testing.T) {
	assert.Equal(t, 50, costScore(nil))

	tests := []struct {
		total float64
		want  int
	}{
		{400, 100},
		{1000, 90},
		{2500, 60},
		{8000, 30},
		{20000, 10},
	}
	for _, tt := range tests {
		prog := &models.Program{Fees: &models.Fees{Total: tt.total}}
		assert.Equal(t, tt.want, costScore(prog), "total %.0f", tt.total)
	}
}

func TestSuccessScore(t *testing.T) {
	assert.Equal(t, 50, successScore(nil))
	rate := 0.425
	assert.Equal(t, 43, successScore(&models.Program{SuccessRate: &rate}))
}
