// internal/workers/recommendation/analyze-gaps/handler_test.go
package analyzegaps

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/models"
	"immigration-workers/internal/recommendation"
)

type fakeProfiles struct {
	analysis *models.ProfileAnalysis
	err      error
	calls    int
}

func (f *fakeProfiles) AnalyzeProfile(ctx context.Context, userID, sessionID string) (*models.ProfileAnalysis, error) {
	f.calls++
	return f.analysis, f.err
}

func newTestHandler(profiles *fakeProfiles, t *testing.T) *Handler {
	log := logger.NewTestLogger(t)
	return NewHandler(LoadConfig(), profiles, recommendation.NewGapAnalyzer(log), log)
}

func weakMatch() models.MatchResult {
	return models.MatchResult{
		ProgramID:   "fsw",
		ProgramName: "Federal Skilled Worker",
		Country:     "Canada",
		Category:    "skilled-worker",
		MatchScore:  45,
		EligibilityDetails: []models.CriterionResult{
			{CriterionID: "language", Name: "Language ability", Required: true, Score: 25},
			{CriterionID: "education", Name: "Education", Required: true, Score: 80},
		},
	}
}

func TestHandler_Execute_AttachesGapAnalysis(t *testing.T) {
	profiles := &fakeProfiles{}
	h := newTestHandler(profiles, t)

	output, err := h.Execute(context.Background(), &Input{
		Profile: &models.ProfileAnalysis{UserID: "user-1"},
		Matches: []models.MatchResult{weakMatch()},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.AnalyzedCount)
	require.Len(t, output.Matches, 1)

	analysis := output.Matches[0].GapAnalysis
	require.NotNil(t, analysis)
	require.Len(t, analysis.Gaps, 1)
	assert.Equal(t, "language", analysis.Gaps[0].CriterionID)
	assert.Equal(t, models.SeverityMedium, analysis.Gaps[0].Severity)
	assert.NotEmpty(t, analysis.ImprovementPlan)
	assert.Zero(t, profiles.calls)
}

func TestHandler_Execute_FetchesProfileWhenMissing(t *testing.T) {
	profiles := &fakeProfiles{analysis: &models.ProfileAnalysis{UserID: "user-1"}}
	h := newTestHandler(profiles, t)

	output, err := h.Execute(context.Background(), &Input{
		UserID:  "user-1",
		Matches: []models.MatchResult{weakMatch()},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, profiles.calls)
	assert.Equal(t, 1, output.AnalyzedCount)
}

func TestHandler_Execute_EmptyMatches(t *testing.T) {
	h := newTestHandler(&fakeProfiles{}, t)

	output, err := h.Execute(context.Background(), &Input{
		Profile: &models.ProfileAnalysis{UserID: "user-1"},
	})

	require.NoError(t, err)
	assert.Empty(t, output.Matches)
	assert.Zero(t, output.AnalyzedCount)
}

func TestHandler_Execute_RequiresProfileOrUserID(t *testing.T) {
	h := newTestHandler(&fakeProfiles{}, t)

	output, err := h.Execute(context.Background(), &Input{Matches: []models.MatchResult{weakMatch()}})

	assert.Nil(t, output)
	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeParseError, stdErr.Code)
}
