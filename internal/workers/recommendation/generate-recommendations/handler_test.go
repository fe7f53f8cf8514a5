// internal/workers/recommendation/generate-recommendations/handler_test.go
package generaterecommendations

import (
	"context"
	"errors"
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
}

func (f *fakeProfiles) AnalyzeProfile(ctx context.Context, userID, sessionID string) (*models.ProfileAnalysis, error) {
	return f.analysis, f.err
}

type fakeCatalog struct {
	programs []models.Program
	err      error
}

func (f *fakeCatalog) GetAllPrograms(ctx context.Context) ([]models.Program, error) {
	return f.programs, f.err
}

func float64Ptr(v float64) *float64 { return &v }

func strongProgram(id, country string) models.Program {
	return models.Program{
		ID:      id,
		Name:    "Program " + id,
		Country: country,
		EligibilityCriteria: []models.EligibilityCriterion{
			{
				CriterionID: "age",
				Name:        "Age",
				Type:        models.CriterionRange,
				Points:      100,
				Range: &models.RangeSpec{
					Min:      float64Ptr(18),
					Max:      float64Ptr(44),
					IdealMin: float64Ptr(25),
					IdealMax: float64Ptr(32),
				},
			},
		},
	}
}

func newTestHandler(profiles *fakeProfiles, catalog *fakeCatalog, t *testing.T) *Handler {
	log := logger.NewTestLogger(t)
	engine := recommendation.NewEngine(
		profiles,
		catalog,
		recommendation.NewMatcher(recommendation.DefaultMatcherParams(), log),
		recommendation.NewGapAnalyzer(log),
		recommendation.NewRanker(recommendation.DefaultRankerParams(), log),
		recommendation.DefaultEngineConfig(),
		log,
	)
	return NewHandler(LoadConfig(), engine, log)
}

func TestHandler_Execute_GeneratesRecommendationSet(t *testing.T) {
	profiles := &fakeProfiles{analysis: &models.ProfileAnalysis{UserID: "user-1", Age: float64Ptr(29)}}
	catalog := &fakeCatalog{programs: []models.Program{
		strongProgram("fsw", "Canada"),
		strongProgram("skilled-189", "Australia"),
	}}
	h := newTestHandler(profiles, catalog, t)

	output, err := h.Execute(context.Background(), &Input{UserID: "user-1"})

	require.NoError(t, err)
	set := output.Recommendations
	require.NotNil(t, set)
	assert.NotEmpty(t, set.ID)
	assert.Equal(t, 2, set.TotalCount)
	assert.Equal(t, 2, set.PrimaryCount)
	assert.Zero(t, set.AlternativeCount)
	assert.Len(t, set.ByCountry["Canada"], 1)
	assert.Len(t, set.ByCountry["Australia"], 1)
	require.Len(t, set.Results, 2)
	assert.NotNil(t, set.Results[0].GapAnalysis)
}

func TestHandler_Execute_ProfileNotFoundIsTerminal(t *testing.T) {
	profiles := &fakeProfiles{err: apperrors.NewProfileNotFoundError("ghost")}
	h := newTestHandler(profiles, &fakeCatalog{}, t)

	output, err := h.Execute(context.Background(), &Input{UserID: "ghost"})

	assert.Nil(t, output)
	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeProfileNotFound, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestHandler_Execute_CatalogErrorIsRetryable(t *testing.T) {
	profiles := &fakeProfiles{analysis: &models.ProfileAnalysis{UserID: "user-1", Age: float64Ptr(29)}}
	catalog := &fakeCatalog{err: errors.New("connection refused")}
	h := newTestHandler(profiles, catalog, t)

	output, err := h.Execute(context.Background(), &Input{UserID: "user-1"})

	assert.Nil(t, output)
	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeCatalogFetchFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_Execute_EmptyCatalogYieldsEmptySet(t *testing.T) {
	profiles := &fakeProfiles{analysis: &models.ProfileAnalysis{UserID: "user-1", Age: float64Ptr(29)}}
	h := newTestHandler(profiles, &fakeCatalog{}, t)

	output, err := h.Execute(context.Background(), &Input{UserID: "user-1"})

	require.NoError(t, err)
	set := output.Recommendations
	require.NotNil(t, set)
	assert.Zero(t, set.TotalCount)
	assert.Empty(t, set.Results)
}
