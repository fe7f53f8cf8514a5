// internal/recommendation/engine_test.go
package recommendation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/models"
)

type stubProfiles struct {
	profile *models.ProfileAnalysis
	err     error
	calls   int
}

func (s *stubProfiles) AnalyzeProfile(ctx context.Context, userID, sessionID string) (*models.ProfileAnalysis, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

type stubCatalog struct {
	programs []models.Program
	err      error
	calls    int
}

func (s *stubCatalog) GetAllPrograms(ctx context.Context) ([]models.Program, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.programs, nil
}

func newTestEngine(t *testing.T, profiles ProfileAnalyzer, catalog CatalogService) *Engine {
	log := logger.NewTestLogger(t)
	return NewEngine(
		profiles,
		catalog,
		NewMatcher(DefaultMatcherParams(), log),
		NewGapAnalyzer(log),
		NewRanker(DefaultRankerParams(), log),
		DefaultEngineConfig(),
		log,
	)
}

func strongCatalogProgram(id string) models.Program {
	return models.Program{
		ID: id, Name: "Program " + id, Country: "Canada", Category: "skilled-worker",
		EligibilityCriteria: []models.EligibilityCriterion{ageCriterion(false)},
	}
}

func TestGenerateRecommendations_HappyPath(t *testing.T) {
	profiles := &stubProfiles{profile: strongProfile()}
	catalog := &stubCatalog{programs: []models.Program{strongCatalogProgram("p1")}}
	e := newTestEngine(t, profiles, catalog)

	set, err := e.GenerateRecommendations(context.Background(), "user-1", "sess-1", models.RecommendationOptions{})
	require.NoError(t, err)
	require.NotNil(t, set)

	assert.NotEmpty(t, set.ID)
	assert.False(t, set.GeneratedAt.IsZero())
	assert.Equal(t, 1, set.TotalCount)
	assert.Equal(t, 1, set.PrimaryCount)
	assert.Equal(t, 0, set.AlternativeCount)
	require.Len(t, set.Results, 1)
	assert.Equal(t, "p1", set.Results[0].ProgramID)
	assert.Equal(t, 100, set.Results[0].MatchScore)
	assert.NotNil(t, set.Results[0].GapAnalysis)
	require.Contains(t, set.ByCountry, "Canada")
	assert.Len(t, set.ByCountry["Canada"], 1)

	assert.Equal(t, 1, profiles.calls)
	assert.Equal(t, 1, catalog.calls)
}

func TestGenerateRecommendations_RelaxedBackfill(t *testing.T) {
	profile := &models.ProfileAnalysis{UserID: "user-1", Age: fptr(29), EnglishCLB: iptr(5)}
	nearMiss := models.Program{
		ID: "near-miss", Name: "Near Miss", Country: "Germany", Category: "skilled-worker",
		EligibilityCriteria: []models.EligibilityCriterion{{
			CriterionID: "language",
			Name:        "Language proficiency",
			Type:        models.CriterionLanguage,
			Points:      100,
			Language:    &models.LanguageSpec{Languages: []string{"English"}, MinLevel: 7, MaxLevel: 10},
		}},
	}
	catalog := &stubCatalog{programs: []models.Program{strongCatalogProgram("p1"), nearMiss}}
	e := newTestEngine(t, &stubProfiles{profile: profile}, catalog)

	set, err := e.GenerateRecommendations(context.Background(), "user-1", "", models.RecommendationOptions{})
	require.NoError(t, err)

	require.Equal(t, 2, set.TotalCount)
	assert.Equal(t, 1, set.PrimaryCount)
	assert.Equal(t, 1, set.AlternativeCount)
	assert.Equal(t, "p1", set.Results[0].ProgramID)
	assert.False(t, set.Results[0].Alternative)
	assert.Equal(t, "near-miss", set.Results[1].ProgramID)
	assert.True(t, set.Results[1].Alternative)
	// Strict score 36 plus the relaxed bonus.
	assert.Equal(t, 56, set.Results[1].MatchScore)
}

func TestGenerateRecommendations_AlternativesDisabled(t *testing.T) {
	profile := &models.ProfileAnalysis{UserID: "user-1", Age: fptr(50)}
	catalog := &stubCatalog{programs: []models.Program{strongCatalogProgram("p1")}}
	e := newTestEngine(t, &stubProfiles{profile: profile}, catalog)

	off := false
	set, err := e.GenerateRecommendations(context.Background(), "user-1", "", models.RecommendationOptions{
		IncludeAlternativePrograms: &off,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, set.TotalCount)
	assert.Equal(t, 0, set.AlternativeCount)
	assert.Empty(t, set.Results)
}

func TestGenerateRecommendations_GapAnalysisDisabled(t *testing.T) {
	profiles := &stubProfiles{profile: strongProfile()}
	catalog := &stubCatalog{programs: []models.Program{strongCatalogProgram("p1")}}
	e := newTestEngine(t, profiles, catalog)

	off := false
	set, err := e.GenerateRecommendations(context.Background(), "user-1", "", models.RecommendationOptions{
		IncludeGapAnalysis: &off,
	})
	require.NoError(t, err)
	require.Len(t, set.Results, 1)
	assert.Nil(t, set.Results[0].GapAnalysis)
}

func TestGenerateRecommendations_MaxResultsTrims(t *testing.T) {
	profiles := &stubProfiles{profile: strongProfile()}
	catalog := &stubCatalog{programs: []models.Program{
		strongCatalogProgram("p1"),
		strongCatalogProgram("p2"),
		strongCatalogProgram("p3"),
	}}
	e := newTestEngine(t, profiles, catalog)

	set, err := e.GenerateRecommendations(context.Background(), "user-1", "", models.RecommendationOptions{MaxResults: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, set.TotalCount)
	assert.Equal(t, 2, set.PrimaryCount)
	assert.Len(t, set.Results, 2)
}

func TestGenerateRecommendations_ProfileNotFoundPassesThrough(t *testing.T) {
	profiles := &stubProfiles{err: apperrors.NewProfileNotFoundError("user-1")}
	e := newTestEngine(t, profiles, &stubCatalog{})

	set, err := e.GenerateRecommendations(context.Background(), "user-1", "", models.RecommendationOptions{})
	assert.Nil(t, set)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeProfileNotFound, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestGenerateRecommendations_ProfileFetchErrorIsWrapped(t *testing.T) {
	profiles := &stubProfiles{err: errors.New("connection reset")}
	e := newTestEngine(t, profiles, &stubCatalog{})

	_, err := e.GenerateRecommendations(context.Background(), "user-1", "", models.RecommendationOptions{})

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeProfileFetchFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestGenerateRecommendations_CatalogErrorIsRetryable(t *testing.T) {
	profiles := &stubProfiles{profile: strongProfile()}
	catalog := &stubCatalog{err: errors.New("elasticsearch unavailable")}
	e := newTestEngine(t, profiles, catalog)

	_, err := e.GenerateRecommendations(context.Background(), "user-1", "", models.RecommendationOptions{})

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeCatalogFetchFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestGenerateRecommendations_EmptyCatalog(t *testing.T) {
	profiles := &stubProfiles{profile: strongProfile()}
	e := newTestEngine(t, profiles, &stubCatalog{})

	set, err := e.GenerateRecommendations(context.Background(), "user-1", "", models.RecommendationOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, set.TotalCount)
	assert.Empty(t, set.ByCountry)
}
