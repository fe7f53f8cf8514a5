// internal/recommendation/criteria.go
package recommendation

import (
	"fmt"
	"math"
	"strings"

	"immigration-workers/internal/models"
)

// EvaluateCriterion scores one eligibility criterion against a profile.
// It is a pure function: no I/O, no hidden state, and it never panics on
// malformed input. Missing data degrades to a zero score with an explanatory
// message instead of an error.
func EvaluateCriterion(c models.EligibilityCriterion, p *models.ProfileAnalysis) models.CriterionResult {
	switch c.Type {
	case models.CriterionRange:
		return evaluateRange(c, p)
	case models.CriterionLevel:
		return evaluateLevel(c, p)
	case models.CriterionLanguage:
		return evaluateLanguage(c, p)
	case models.CriterionBoolean:
		return evaluateBoolean(c, p)
	case models.CriterionComposite:
		return evaluateComposite(c, p)
	case models.CriterionMoney:
		return evaluateMoney(c, p)
	default:
		return newResult(c, 0, "Unknown criterion type", nil)
	}
}

// newResult builds a CriterionResult keeping the earnedPoints invariant:
// earnedPoints = round(score/100 * maxPoints).
func newResult(c models.EligibilityCriterion, score int, message string, userValue interface{}) models.CriterionResult {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return models.CriterionResult{
		CriterionID:  c.CriterionID,
		Name:         c.Name,
		Required:     c.Required,
		Score:        score,
		EarnedPoints: math.Round(float64(score) / 100 * c.Points),
		MaxPoints:    c.Points,
		Message:      message,
		UserValue:    userValue,
	}
}

// roundHalfUp rounds to the nearest integer, ties upward. All pipeline scores
// are non-negative so this matches math.Round.
func roundHalfUp(v float64) int {
	return int(math.Round(v))
}

// normalizeID canonicalizes a criterion id for keyword lookup.
func normalizeID(id string) string {
	id = strings.ToLower(id)
	id = strings.ReplaceAll(id, "-", "_")
	id = strings.ReplaceAll(id, " ", "_")
	return id
}

// numericValue resolves the profile fact a numeric criterion refers to, by
// criterion id keyword. Nil means the profile has no data for it.
func numericValue(criterionID string, p *models.ProfileAnalysis) *float64 {
	id := normalizeID(criterionID)
	switch {
	case strings.Contains(id, "age"):
		return p.Age
	case strings.Contains(id, "experience") || strings.Contains(id, "work"):
		return p.TotalYearsOfExperience
	case strings.Contains(id, "fund") || strings.Contains(id, "asset") || strings.Contains(id, "financ") || strings.Contains(id, "invest"):
		return p.LiquidAssets
	case strings.Contains(id, "education"):
		if p.HighestEducationLevel == nil {
			return nil
		}
		v := float64(*p.HighestEducationLevel)
		return &v
	default:
		return nil
	}
}

// booleanFact resolves a boolean criterion via a fixed lookup table keyed by
// criterion id. Unknown ids resolve to false.
func booleanFact(criterionID string, p *models.ProfileAnalysis) (bool, bool) {
	id := normalizeID(criterionID)
	switch {
	case strings.Contains(id, "job_offer") || strings.Contains(id, "job"):
		return p.HasJobOffer, true
	case strings.Contains(id, "business"):
		return p.HasBusinessExperience, true
	case strings.Contains(id, "resid") || strings.Contains(id, "intention"):
		return p.IntendsToReside, true
	case strings.Contains(id, "support"):
		return p.HasSupportLetter, true
	case strings.Contains(id, "relative") || strings.Contains(id, "family"):
		return p.HasRelativesAbroad, true
	default:
		return false, false
	}
}

// evaluateRange scores a numeric value against [min,max] with an ideal band:
// full credit inside [idealMin,idealMax], a linear ramp from 50 between the
// hard and ideal bounds, and a decay toward zero outside the hard bounds.
func evaluateRange(c models.EligibilityCriterion, p *models.ProfileAnalysis) models.CriterionResult {
	if c.Range == nil {
		return newResult(c, 0, "Criterion payload missing", nil)
	}
	vp := numericValue(c.CriterionID, p)
	if vp == nil {
		return newResult(c, 0, fmt.Sprintf("No data for %s", c.Name), nil)
	}
	v := *vp

	min := math.Inf(-1)
	if c.Range.Min != nil {
		min = *c.Range.Min
	}
	max := math.Inf(1)
	if c.Range.Max != nil {
		max = *c.Range.Max
	}
	idealMin := min
	if c.Range.IdealMin != nil {
		idealMin = *c.Range.IdealMin
	}
	idealMax := max
	if c.Range.IdealMax != nil {
		idealMax = *c.Range.IdealMax
	}

	var score float64
	var message string
	switch {
	case v >= idealMin && v <= idealMax:
		score, message = 100, "Within ideal range"
	case v >= min && v < idealMin:
		score = 50 + (v-min)/(idealMin-min)*50
		message = "Below ideal range"
	case v > idealMax && v <= max:
		score = 50 + (max-v)/(max-idealMax)*50
		message = "Above ideal range"
	case v < min:
		if min > 0 {
			score = math.Max(0, 50-(min-v)/min*50)
		}
		message = "Below minimum"
	default: // v > max
		if max > 0 {
			score = math.Max(0, 50-(v-max)/max*50)
		}
		message = "Above maximum"
	}

	return newResult(c, roundHalfUp(score), message, v)
}

// evaluateLevel maps an ordinal profile level onto the criterion's level table.
// Without an exact match the highest-points entry strictly below the user's
// level is used: exceeding a listed minimum still earns that minimum's credit.
func evaluateLevel(c models.EligibilityCriterion, p *models.ProfileAnalysis) models.CriterionResult {
	if len(c.Levels) == 0 {
		return newResult(c, 0, "Criterion payload missing", nil)
	}
	if p.HighestEducationLevel == nil {
		return newResult(c, 0, fmt.Sprintf("No data for %s", c.Name), nil)
	}
	ordinal := *p.HighestEducationLevel

	maxPoints := 0.0
	for _, lvl := range c.Levels {
		if lvl.Points > maxPoints {
			maxPoints = lvl.Points
		}
	}
	if maxPoints <= 0 {
		return newResult(c, 0, "Criterion defines no points", ordinal)
	}

	matched := -1.0
	matchedLabel := ""
	for _, lvl := range c.Levels {
		if lvl.Value == ordinal {
			matched = lvl.Points
			matchedLabel = lvl.Label
			break
		}
	}
	if matched < 0 {
		for _, lvl := range c.Levels {
			if lvl.Value < ordinal && lvl.Points > matched {
				matched = lvl.Points
				matchedLabel = lvl.Label
			}
		}
	}
	if matched < 0 {
		return newResult(c, 0, "Below minimum level", ordinal)
	}

	score := roundHalfUp(matched / maxPoints * 100)
	return newResult(c, score, fmt.Sprintf("Matched level: %s", matchedLabel), ordinal)
}

// clbFor returns the profile's CLB for a language name, nil when unknown.
func clbFor(language string, p *models.ProfileAnalysis) *int {
	switch {
	case strings.Contains(strings.ToLower(language), "english"):
		return p.EnglishCLB
	case strings.Contains(strings.ToLower(language), "french"):
		return p.FrenchCLB
	default:
		return nil
	}
}

// evaluateLanguage averages per-language sub-scores over the requested
// languages. Meeting the minimum CLB earns at least 50; credit above climbs
// linearly across the criterion's band.
func evaluateLanguage(c models.EligibilityCriterion, p *models.ProfileAnalysis) models.CriterionResult {
	if c.Language == nil || len(c.Language.Languages) == 0 {
		return newResult(c, 0, "Criterion payload missing", nil)
	}
	minLevel := float64(c.Language.MinLevel)
	band := float64(c.Language.MaxLevel - c.Language.MinLevel)

	total := 0.0
	levels := make(map[string]int, len(c.Language.Languages))
	for _, lang := range c.Language.Languages {
		user := 0.0
		if clb := clbFor(lang, p); clb != nil {
			user = float64(*clb)
			levels[lang] = *clb
		}
		var sub float64
		if user >= minLevel {
			if band <= 0 {
				sub = 100
			} else {
				sub = 50 + math.Min(user-minLevel, band)/band*50
			}
		} else if minLevel > 0 {
			sub = user / minLevel * 50
		}
		total += sub
	}

	score := roundHalfUp(total / float64(len(c.Language.Languages)))
	return newResult(c, score, "Language proficiency evaluated", levels)
}

// evaluateBoolean is binary: the fact either holds or it does not.
func evaluateBoolean(c models.EligibilityCriterion, p *models.ProfileAnalysis) models.CriterionResult {
	value, known := booleanFact(c.CriterionID, p)
	if !known {
		return newResult(c, 0, "No recorded fact for criterion", false)
	}
	if value {
		return newResult(c, 100, "Requirement met", true)
	}
	return newResult(c, 0, "Requirement not met", false)
}

// evaluateComposite credits the points of every satisfied factor. A factor is
// satisfied when its boolean fact holds or its numeric fact is present and
// positive.
func evaluateComposite(c models.EligibilityCriterion, p *models.ProfileAnalysis) models.CriterionResult {
	if len(c.Factors) == 0 {
		return newResult(c, 0, "Criterion payload missing", nil)
	}
	total := 0.0
	earned := 0.0
	satisfied := []string{}
	for _, f := range c.Factors {
		total += f.Points
		if factorSatisfied(f.ID, p) {
			earned += f.Points
			satisfied = append(satisfied, f.Name)
		}
	}
	if total <= 0 {
		return newResult(c, 0, "Criterion defines no points", nil)
	}
	score := roundHalfUp(earned / total * 100)
	return newResult(c, score, fmt.Sprintf("%d of %d factors satisfied", len(satisfied), len(c.Factors)), satisfied)
}

func factorSatisfied(factorID string, p *models.ProfileAnalysis) bool {
	if v, known := booleanFact(factorID, p); known {
		return v
	}
	if v := numericValue(factorID, p); v != nil {
		return *v > 0
	}
	return false
}

// evaluateMoney compares liquid assets against the fund tier for the
// applicant's family size. Exceeding the requirement earns up to 100 at double
// the required amount; shortfalls earn proportional credit below 50.
func evaluateMoney(c models.EligibilityCriterion, p *models.ProfileAnalysis) models.CriterionResult {
	if c.Money == nil || len(c.Money.Amounts) == 0 {
		return newResult(c, 0, "Criterion payload missing", nil)
	}
	required := requiredAmount(c.Money.Amounts, p.FamilySize())
	if required <= 0 {
		return newResult(c, 100, "No funds required", nil)
	}
	if p.LiquidAssets == nil {
		return newResult(c, 0, fmt.Sprintf("No data for %s", c.Name), nil)
	}
	assets := *p.LiquidAssets

	var score float64
	var message string
	if assets >= required {
		score = 50 + math.Min((assets-required)/required, 1)*50
		message = "Sufficient funds"
	} else {
		score = assets / required * 50
		message = fmt.Sprintf("Funds below required %.0f %s", required, c.Money.Currency)
	}
	return newResult(c, roundHalfUp(score), message, assets)
}

// requiredAmount selects the fund tier: exact family-size match, else the
// nearest larger tier, else the largest tier available.
func requiredAmount(tiers []models.MoneyTier, familySize int) float64 {
	var nearestLarger *models.MoneyTier
	var largest *models.MoneyTier
	for i := range tiers {
		t := &tiers[i]
		if t.FamilySize == familySize {
			return t.Amount
		}
		if t.FamilySize > familySize {
			if nearestLarger == nil || t.FamilySize < nearestLarger.FamilySize {
				nearestLarger = t
			}
		}
		if largest == nil || t.FamilySize > largest.FamilySize {
			largest = t
		}
	}
	if nearestLarger != nil {
		return nearestLarger.Amount
	}
	if largest != nil {
		return largest.Amount
	}
	return 0
}
