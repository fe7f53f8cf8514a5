// internal/recommendation/matcher.go
package recommendation

import (
	"fmt"
	"math"
	"strings"

	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/models"
)

// ScoreAdjustment down-weights a program's score when a named criterion scored
// below a threshold. Matching is by criterion name keyword, so adjustments are
// order-independent.
type ScoreAdjustment struct {
	NameContains string  `mapstructure:"name_contains"`
	Below        int     `mapstructure:"below"`
	Multiplier   float64 `mapstructure:"multiplier"`
}

// MatcherParams are the tunable constants of the matching stage. They are
// calibration data, not code, so they arrive via configuration.
type MatcherParams struct {
	MinMatchScore      int     `mapstructure:"min_match_score"`
	MinRelaxedScore    int     `mapstructure:"min_relaxed_score"`
	RelaxedBonus       int     `mapstructure:"relaxed_bonus"`
	ZeroPointsScore    int     `mapstructure:"zero_points_score"`
	AllRequiredFailCap int     `mapstructure:"all_required_fail_cap"`
	BaseBlendWeight    float64 `mapstructure:"base_blend_weight"`
	RequiredBlendWeight float64 `mapstructure:"required_blend_weight"`

	// Jurisdictions maps a lowercased country name to its adjustments.
	Jurisdictions map[string][]ScoreAdjustment `mapstructure:"jurisdictions"`
}

// DefaultMatcherParams returns the calibration in production use.
func DefaultMatcherParams() MatcherParams {
	return MatcherParams{
		MinMatchScore:       50,
		MinRelaxedScore:     30,
		RelaxedBonus:        20,
		ZeroPointsScore:     50,
		AllRequiredFailCap:  20,
		BaseBlendWeight:     0.4,
		RequiredBlendWeight: 0.6,
		Jurisdictions: map[string][]ScoreAdjustment{
			"canada": {
				{NameContains: "language", Below: 60, Multiplier: 0.8},
				{NameContains: "education", Below: 50, Multiplier: 0.9},
			},
			"australia": {
				{NameContains: "age", Below: 50, Multiplier: 0.8},
				{NameContains: "english", Below: 60, Multiplier: 0.85},
			},
			"uk": {
				{NameContains: "job offer", Below: 50, Multiplier: 0.75},
				{NameContains: "salary", Below: 50, Multiplier: 0.8},
			},
		},
	}
}

// Matcher evaluates every catalog program against a profile and aggregates
// criterion results into per-program match scores.
type Matcher struct {
	params MatcherParams
	logger logger.Logger
}

func NewMatcher(params MatcherParams, log logger.Logger) *Matcher {
	return &Matcher{
		params: params,
		logger: log.WithFields(map[string]interface{}{"component": "matcher"}),
	}
}

// timeframeCapMonths converts a preference timeframe into a processing-time
// ceiling in months. Zero means no ceiling.
func timeframeCapMonths(timeframe string) int {
	switch timeframe {
	case "immediate":
		return 3
	case "within-6-months":
		return 6
	case "within-1-year":
		return 12
	case "within-2-years":
		return 24
	default:
		return 0
	}
}

// filterByPreferences excludes programs outside the user's selected countries,
// pathway categories, timeframe and budget before any criterion is evaluated.
func (m *Matcher) filterByPreferences(programs []models.Program, prefs models.Preferences) []models.Program {
	cap := timeframeCapMonths(prefs.Timeframe)

	filtered := make([]models.Program, 0, len(programs))
	for _, prog := range programs {
		if len(prefs.Countries) > 0 && !containsFold(prefs.Countries, prog.Country) {
			continue
		}
		if len(prefs.PathwayTypes) > 0 && !containsFold(prefs.PathwayTypes, prog.Category) {
			continue
		}
		if cap > 0 && prog.ProcessingTime != nil && prog.ProcessingTime.MaxMonths() > cap {
			continue
		}
		if prefs.BudgetRange != nil && prefs.BudgetRange.Max > 0 &&
			prog.Fees != nil && prog.Fees.Total > prefs.BudgetRange.Max {
			continue
		}
		filtered = append(filtered, prog)
	}
	return filtered
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

// MatchPrograms runs the strict matching pass: preference filtering, per-program
// scoring, and the minimum-score admission threshold. A failure scoring one
// program is logged and skips that program only.
func (m *Matcher) MatchPrograms(profile *models.ProfileAnalysis, programs []models.Program, prefs models.Preferences) []models.MatchResult {
	filtered := m.filterByPreferences(programs, prefs)

	results := make([]models.MatchResult, 0, len(filtered))
	for i := range filtered {
		res, err := m.scoreProgram(profile, &filtered[i])
		if err != nil {
			m.logger.Warn("skipping program", map[string]interface{}{
				"programId": filtered[i].ID,
				"error":     err.Error(),
			})
			continue
		}
		if res.MatchScore >= m.params.MinMatchScore {
			results = append(results, res)
		}
	}
	return results
}

// MatchProgramsRelaxed is the backfill pass: the strict score plus a flat bonus
// capped at 100, admitted at a lower threshold. Same algorithm, relaxed gate.
func (m *Matcher) MatchProgramsRelaxed(profile *models.ProfileAnalysis, programs []models.Program, exclude map[string]bool) []models.MatchResult {
	results := make([]models.MatchResult, 0, len(programs))
	for i := range programs {
		if exclude[programs[i].ID] {
			continue
		}
		res, err := m.scoreProgram(profile, &programs[i])
		if err != nil {
			m.logger.Warn("skipping program", map[string]interface{}{
				"programId": programs[i].ID,
				"error":     err.Error(),
			})
			continue
		}
		boosted := res.MatchScore + m.params.RelaxedBonus
		if boosted > 100 {
			boosted = 100
		}
		if boosted >= m.params.MinRelaxedScore {
			res.MatchScore = boosted
			res.MatchCategory = matchCategory(boosted)
			results = append(results, res)
		}
	}
	return results
}

// scoreProgram aggregates criterion results for one program. Programs without
// criteria fall back to the coarse category heuristic.
func (m *Matcher) scoreProgram(profile *models.ProfileAnalysis, prog *models.Program) (models.MatchResult, error) {
	if prog.ID == "" {
		return models.MatchResult{}, fmt.Errorf("program has no id")
	}

	result := models.MatchResult{
		ProgramID:     prog.ID,
		ProgramName:   prog.Name,
		Country:       prog.Country,
		Category:      prog.Category,
		KeyStrengths:  []string{},
		KeyWeaknesses: []string{},
		Program:       prog,
	}

	if len(prog.EligibilityCriteria) == 0 {
		score := m.calculateBasicMatchScore(profile, prog)
		result.MatchScore = score
		result.MatchCategory = matchCategory(score)
		result.EligibilityDetails = []models.CriterionResult{}
		return result, nil
	}

	details := make([]models.CriterionResult, 0, len(prog.EligibilityCriteria))
	totalPoints := 0.0
	earnedPoints := 0.0
	requiredTotal := 0
	requiredMet := 0

	for _, crit := range prog.EligibilityCriteria {
		cr := EvaluateCriterion(crit, profile)
		details = append(details, cr)
		totalPoints += cr.MaxPoints
		earnedPoints += cr.EarnedPoints

		if cr.Required {
			requiredTotal++
			if cr.Score >= 50 {
				requiredMet++
			}
		}
		if cr.Score >= 80 {
			result.KeyStrengths = append(result.KeyStrengths, cr.Name)
		}
		if cr.Required && cr.Score < 50 {
			result.KeyWeaknesses = append(result.KeyWeaknesses, cr.Name)
		}
	}

	score := float64(m.params.ZeroPointsScore)
	if totalPoints > 0 {
		score = earnedPoints / totalPoints * 100
	}

	// Failing mandatory gates dominates the score regardless of how well
	// optional criteria did.
	if requiredTotal > 0 && requiredMet < requiredTotal {
		if requiredMet == 0 {
			score = math.Min(score, float64(m.params.AllRequiredFailCap))
		} else {
			requiredRatio := float64(requiredMet) / float64(requiredTotal) * 100
			score = m.params.BaseBlendWeight*score + m.params.RequiredBlendWeight*requiredRatio
		}
	}

	score = m.applyJurisdictionAdjustments(score, prog.Country, details)

	final := roundHalfUp(math.Max(0, math.Min(100, score)))
	result.MatchScore = final
	result.MatchCategory = matchCategory(final)
	result.EligibilityDetails = details
	return result, nil
}

func (m *Matcher) applyJurisdictionAdjustments(score float64, country string, details []models.CriterionResult) float64 {
	adjustments, ok := m.params.Jurisdictions[strings.ToLower(country)]
	if !ok {
		return score
	}
	for _, adj := range adjustments {
		for _, d := range details {
			if strings.Contains(strings.ToLower(d.Name), adj.NameContains) && d.Score < adj.Below {
				score *= adj.Multiplier
				break
			}
		}
	}
	return score
}

// calculateBasicMatchScore is the coarse heuristic for programs that publish no
// criteria: the profile's overall strength plus fixed per-category deltas,
// clamped to [30,100].
func (m *Matcher) calculateBasicMatchScore(profile *models.ProfileAnalysis, prog *models.Program) int {
	base := profile.OverallScore
	if base <= 0 {
		base = 50
	}

	category := strings.ToLower(prog.Category)
	switch {
	case strings.Contains(category, "skilled"):
		if profile.HighestEducationLevel != nil && *profile.HighestEducationLevel >= 5 {
			base += 10
		}
		if profile.TotalYearsOfExperience != nil && *profile.TotalYearsOfExperience >= 3 {
			base += 5
		}
		if profile.EnglishCLB != nil && *profile.EnglishCLB >= 7 {
			base += 5
		}
	case strings.Contains(category, "business") || strings.Contains(category, "invest"):
		if profile.HasInvestorCapacity {
			base += 15
		} else if profile.LiquidAssets != nil && *profile.LiquidAssets >= 100000 {
			base += 10
		}
	case strings.Contains(category, "study"):
		if profile.HighestEducationLevel != nil && *profile.HighestEducationLevel >= 3 {
			base += 10
		}
		if profile.EnglishCLB != nil && *profile.EnglishCLB >= 6 {
			base += 5
		}
		if profile.LiquidAssets != nil && *profile.LiquidAssets >= 10000 {
			base += 5
		}
	case strings.Contains(category, "family"):
		base += 10
	}

	return roundHalfUp(math.Max(30, math.Min(100, base)))
}

func matchCategory(score int) models.MatchCategory {
	switch {
	case score >= 80:
		return models.MatchExcellent
	case score >= 65:
		return models.MatchGood
	case score >= 50:
		return models.MatchModerate
	default:
		return models.MatchPoor
	}
}
