// internal/recommendation/gaps.go
package recommendation

import (
	"regexp"
	"strconv"
	"strings"

	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/models"
)

// GapAnalyzer explains why a program fit poorly: which required criteria were
// missed, how bad each miss is, what to do about it, and which alternative
// pathways remain open.
type GapAnalyzer struct {
	logger logger.Logger
}

func NewGapAnalyzer(log logger.Logger) *GapAnalyzer {
	return &GapAnalyzer{
		logger: log.WithFields(map[string]interface{}{"component": "gap-analyzer"}),
	}
}

// AnalyzeGaps attaches a GapAnalysis to every match. A failure analyzing one
// program leaves that match unmodified; the batch always completes.
func (g *GapAnalyzer) AnalyzeGaps(profile *models.ProfileAnalysis, matches []models.MatchResult) []models.MatchResult {
	out := make([]models.MatchResult, len(matches))
	for i := range matches {
		out[i] = matches[i]
		analysis := g.analyzeProgram(profile, &matches[i])
		if analysis != nil {
			out[i].GapAnalysis = analysis
		}
	}
	return out
}

func (g *GapAnalyzer) analyzeProgram(profile *models.ProfileAnalysis, match *models.MatchResult) (analysis *models.GapAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("gap analysis failed, returning match unmodified", map[string]interface{}{
				"programId": match.ProgramID,
				"panic":     r,
			})
			analysis = nil
		}
	}()

	gaps := []models.Gap{}
	plan := []models.ImprovementAction{}
	seenAreas := map[string]bool{}

	for _, d := range match.EligibilityDetails {
		if !d.Required || d.Score >= 50 {
			continue
		}
		gaps = append(gaps, models.Gap{
			CriterionID:   d.CriterionID,
			CriterionName: d.Name,
			Severity:      gapSeverity(d.Score),
			UserValue:     d.UserValue,
			RequiredValue: requiredValueFromDescription(criterionDescription(match, d.CriterionID)),
		})

		action := planFor(d.CriterionID)
		if !seenAreas[action.Area] {
			seenAreas[action.Area] = true
			plan = append(plan, action)
		}
	}

	return &models.GapAnalysis{
		Gaps:                gaps,
		ImprovementPlan:     plan,
		AlternativePathways: g.alternativePathways(profile, match),
	}
}

// gapSeverity buckets how far a required criterion fell short.
func gapSeverity(score int) models.GapSeverity {
	switch {
	case score >= 40:
		return models.SeverityLow
	case score >= 20:
		return models.SeverityMedium
	default:
		return models.SeverityHigh
	}
}

func criterionDescription(match *models.MatchResult, criterionID string) string {
	if match.Program == nil {
		return ""
	}
	for _, c := range match.Program.EligibilityCriteria {
		if c.CriterionID == criterionID {
			return c.Description
		}
	}
	return ""
}

// requiredValuePatterns mine a numeric requirement out of free-text criterion
// descriptions. Output is advisory: phrasing varies and no guarantee is made.
var requiredValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)minimum(?:\s+\w+){0,3}\s+of\s+([0-9][0-9,\.]*)`),
	regexp.MustCompile(`(?i)below(?:\s+\w+){0,2}\s+of\s+([0-9][0-9,\.]*)`),
	regexp.MustCompile(`(?i)requires?\s+([0-9][0-9,\.]*)`),
}

func requiredValueFromDescription(description string) *float64 {
	if description == "" {
		return nil
	}
	for _, re := range requiredValuePatterns {
		m := re.FindStringSubmatch(description)
		if len(m) < 2 {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		raw = strings.TrimRight(raw, ".")
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return &v
		}
	}
	return nil
}

// alternativePathways appends pathway suggestions conditioned on which
// weaknesses are present and what the profile supports.
func (g *GapAnalyzer) alternativePathways(profile *models.ProfileAnalysis, match *models.MatchResult) []models.AlternativePathway {
	pathways := []models.AlternativePathway{}

	weakEducation := false
	weakExperience := false
	weakJobOffer := false
	for _, d := range match.EligibilityDetails {
		if !d.Required || d.Score >= 50 {
			continue
		}
		id := normalizeID(d.CriterionID)
		switch {
		case strings.Contains(id, "education"):
			weakEducation = true
		case strings.Contains(id, "experience"):
			weakExperience = true
		case strings.Contains(id, "job"):
			weakJobOffer = true
		}
	}

	if weakEducation {
		pathways = append(pathways, models.AlternativePathway{
			Type:              "study",
			Title:             "Study pathway",
			Description:       "Studying in the destination closes the education gap and usually opens a post-graduation work route.",
			SuggestedPrograms: suggestedPrograms("study", match.Country),
		})
	}
	if weakExperience || weakJobOffer {
		pathways = append(pathways, models.AlternativePathway{
			Type:              "temporary-work",
			Title:             "Temporary work pathway",
			Description:       "A temporary permit builds local work experience and employer relationships that later support permanent streams.",
			SuggestedPrograms: suggestedPrograms("temporary-work", match.Country),
		})
	}

	category := strings.ToLower(match.Category)
	if (strings.Contains(category, "skilled") || strings.Contains(category, "provincial")) && match.MatchScore < 70 {
		pathways = append(pathways, models.AlternativePathway{
			Type:              "regional",
			Title:             "Regional or provincial pathway",
			Description:       "Regional nomination streams have lower cutoffs for candidates willing to settle outside major centres.",
			SuggestedPrograms: suggestedPrograms("regional", match.Country),
		})
	}

	substantialAssets := profile.LiquidAssets != nil && *profile.LiquidAssets >= 100000
	if substantialAssets || profile.HasInvestorCapacity {
		pathways = append(pathways, models.AlternativePathway{
			Type:              "business",
			Title:             "Business pathway",
			Description:       "Entrepreneur and investor streams weigh capital and business experience over points-tested criteria.",
			SuggestedPrograms: suggestedPrograms("business", match.Country),
		})
	}
	if profile.HasRelativesAbroad {
		pathways = append(pathways, models.AlternativePathway{
			Type:              "family",
			Title:             "Family pathway",
			Description:       "Eligible relatives in the destination may sponsor directly, bypassing points-tested selection.",
			SuggestedPrograms: suggestedPrograms("family", match.Country),
		})
	}

	return pathways
}
