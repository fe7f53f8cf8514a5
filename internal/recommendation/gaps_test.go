// internal/recommendation/gaps_test.go
package recommendation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/models"
)

func newTestGapAnalyzer(t *testing.T) *GapAnalyzer {
	return NewGapAnalyzer(logger.NewTestLogger(t))
}

func TestAnalyzeGaps_RequiredFailuresOnly(t *testing.T) {
	g := newTestGapAnalyzer(t)

	match := models.MatchResult{
		ProgramID: "prog-1", Country: "Canada", Category: "skilled-worker", MatchScore: 45,
		EligibilityDetails: []models.CriterionResult{
			{CriterionID: "language", Name: "Language proficiency", Required: true, Score: 25},
			{CriterionID: "education", Name: "Education level", Required: true, Score: 45},
			{CriterionID: "settlement_funds", Name: "Settlement funds", Required: true, Score: 10},
			{CriterionID: "job_offer", Name: "Job offer", Required: false, Score: 0},
			{CriterionID: "age", Name: "Age", Required: true, Score: 80},
		},
	}

	out := g.AnalyzeGaps(&models.ProfileAnalysis{}, []models.MatchResult{match})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].GapAnalysis)

	gaps := out[0].GapAnalysis.Gaps
	require.Len(t, gaps, 3)
	assert.Equal(t, models.SeverityMedium, gaps[0].Severity)
	assert.Equal(t, models.SeverityLow, gaps[1].Severity)
	assert.Equal(t, models.SeverityHigh, gaps[2].Severity)

	areas := make([]string, 0, len(out[0].GapAnalysis.ImprovementPlan))
	for _, a := range out[0].GapAnalysis.ImprovementPlan {
		areas = append(areas, a.Area)
	}
	assert.Equal(t, []string{"Language", "Education", "Settlement funds"}, areas)
}

func TestAnalyzeGaps_DeduplicatesPlanAreas(t *testing.T) {
	g := newTestGapAnalyzer(t)

	match := models.MatchResult{
		ProgramID: "prog-1", Country: "Canada", Category: "skilled-worker",
		EligibilityDetails: []models.CriterionResult{
			{CriterionID: "language_english", Name: "English proficiency", Required: true, Score: 30},
			{CriterionID: "language_french", Name: "French proficiency", Required: true, Score: 10},
		},
	}

	out := g.AnalyzeGaps(&models.ProfileAnalysis{}, []models.MatchResult{match})
	require.NotNil(t, out[0].GapAnalysis)
	assert.Len(t, out[0].GapAnalysis.Gaps, 2)
	require.Len(t, out[0].GapAnalysis.ImprovementPlan, 1)
	assert.Equal(t, "Language", out[0].GapAnalysis.ImprovementPlan[0].Area)
}

func TestAnalyzeGaps_MinesRequiredValueFromDescription(t *testing.T) {
	g := newTestGapAnalyzer(t)

	prog := &models.Program{
		ID: "prog-1",
		EligibilityCriteria: []models.EligibilityCriterion{{
			CriterionID: "language",
			Name:        "Language proficiency",
			Description: "Requires a minimum CLB of 7 in all four abilities",
		}},
	}
	match := models.MatchResult{
		ProgramID: "prog-1", Country: "Canada", Category: "skilled-worker", Program: prog,
		EligibilityDetails: []models.CriterionResult{
			{CriterionID: "language", Name: "Language proficiency", Required: true, Score: 30, UserValue: map[string]int{"English": 5}},
		},
	}

	out := g.AnalyzeGaps(&models.ProfileAnalysis{}, []models.MatchResult{match})
	gaps := out[0].GapAnalysis.Gaps
	require.Len(t, gaps, 1)
	require.NotNil(t, gaps[0].RequiredValue)
	assert.Equal(t, float64(7), *gaps[0].RequiredValue)
}

func TestRequiredValueFromDescription(t *testing.T) {
	tests := []struct {
		description string
		want        *float64
	}{
		{"Requires a minimum CLB of 7 in all abilities", fptr(7)},
		{"Requires 14,315 in unencumbered settlement funds.", fptr(14315)},
		{"Applicants must be young", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := requiredValueFromDescription(tt.description)
		if tt.want == nil {
			assert.Nil(t, got, tt.description)
		} else {
			require.NotNil(t, got, tt.description)
			assert.Equal(t, *tt.want, *got, tt.description)
		}
	}
}

func TestGapSeverityBuckets(t *testing.T) {
	assert.Equal(t, models.SeverityLow, gapSeverity(40))
	assert.Equal(t, models.SeverityMedium, gapSeverity(39))
	assert.Equal(t, models.SeverityMedium, gapSeverity(20))
	assert.Equal(t, models.SeverityHigh, gapSeverity(19))
	assert.Equal(t, models.SeverityHigh, gapSeverity(0))
}

func TestPlanFor_FallsBackToGenericTemplate(t *testing.T) {
	action := planFor("language_test")
	assert.Equal(t, "Language", action.Area)

	action = planFor("quota_slot")
	assert.Equal(t, "quota_slot", action.Area)
	assert.Equal(t, "Address unmet requirement", action.Action)
}

func TestAlternativePathways(t *testing.T) {
	g := newTestGapAnalyzer(t)

	t.Run("weak education suggests study", func(t *testing.T) {
		match := models.MatchResult{
			ProgramID: "p", Country: "Canada", Category: "other", MatchScore: 80,
			EligibilityDetails: []models.CriterionResult{
				{CriterionID: "education", Name: "Education", Required: true, Score: 20},
			},
		}
		pathways := g.alternativePathways(&models.ProfileAnalysis{}, &match)
		require.Len(t, pathways, 1)
		assert.Equal(t, "study", pathways[0].Type)
		assert.Contains(t, pathways[0].SuggestedPrograms, "Study Permit with PGWP")
	})

	t.Run("weak job offer suggests temporary work", func(t *testing.T) {
		match := models.MatchResult{
			ProgramID: "p", Country: "Australia", Category: "other", MatchScore: 80,
			EligibilityDetails: []models.CriterionResult{
				{CriterionID: "job_offer", Name: "Job offer", Required: true, Score: 0},
			},
		}
		pathways := g.alternativePathways(&models.ProfileAnalysis{}, &match)
		require.Len(t, pathways, 1)
		assert.Equal(t, "temporary-work", pathways[0].Type)
	})

	t.Run("struggling skilled match suggests regional streams", func(t *testing.T) {
		match := models.MatchResult{ProgramID: "p", Country: "Canada", Category: "skilled-worker", MatchScore: 55}
		pathways := g.alternativePathways(&models.ProfileAnalysis{}, &match)
		require.Len(t, pathways, 1)
		assert.Equal(t, "regional", pathways[0].Type)
		assert.Contains(t, pathways[0].SuggestedPrograms, "Provincial Nominee Program")
	})

	t.Run("capital opens the business pathway", func(t *testing.T) {
		profile := &models.ProfileAnalysis{LiquidAssets: fptr(150000)}
		match := models.MatchResult{ProgramID: "p", Country: "UK", Category: "other", MatchScore: 80}
		pathways := g.alternativePathways(profile, &match)
		require.Len(t, pathways, 1)
		assert.Equal(t, "business", pathways[0].Type)
		assert.Contains(t, pathways[0].SuggestedPrograms, "Innovator Founder visa")
	})

	t.Run("relatives open the family pathway", func(t *testing.T) {
		profile := &models.ProfileAnalysis{HasRelativesAbroad: true}
		match := models.MatchResult{ProgramID: "p", Country: "New Zealand", Category: "other", MatchScore: 80}
		pathways := g.alternativePathways(profile, &match)
		require.Len(t, pathways, 1)
		assert.Equal(t, "family", pathways[0].Type)
		assert.Equal(t, []string{"Family sponsorship routes"}, pathways[0].SuggestedPrograms)
	})

	t.Run("strong match with no weaknesses suggests nothing", func(t *testing.T) {
		match := models.MatchResult{ProgramID: "p", Country: "Canada", Category: "other", MatchScore: 90}
		pathways := g.alternativePathways(&models.ProfileAnalysis{}, &match)
		assert.Empty(t, pathways)
	})
}
