// internal/recommendation/plans.go
package recommendation

import (
	"strings"

	"immigration-workers/internal/models"
)

// planTemplate binds a criterion id keyword to its remediation template.
// Externalized as data so the analyzer stays a pure lookup.
type planTemplate struct {
	keyword string
	action  models.ImprovementAction
}

var improvementPlans = []planTemplate{
	{
		keyword: "age",
		action: models.ImprovementAction{
			Area:        "Age",
			Action:      "Target programs with wider age bands",
			Description: "Age cannot be remediated; shift toward programs where age carries fewer points or apply before the next birthday cutoff.",
			Timeframe:   "immediate",
			Difficulty:  "low",
			Steps:       []string{"Review age point tables of alternative programs", "Prioritize applications with near-term deadlines"},
			Resources:   []string{"Official program point calculators"},
		},
	},
	{
		keyword: "education",
		action: models.ImprovementAction{
			Area:        "Education",
			Action:      "Obtain a credential assessment or upgrade qualifications",
			Description: "Have existing credentials formally assessed, or complete an additional diploma or degree recognized by the destination country.",
			Timeframe:   "6-24 months",
			Difficulty:  "medium",
			Steps:       []string{"Order an educational credential assessment", "Compare assessed level against program requirements", "Enroll in a recognized upgrade program if short"},
			Resources:   []string{"WES", "Designated credential assessment bodies"},
		},
	},
	{
		keyword: "language",
		action: models.ImprovementAction{
			Area:        "Language",
			Action:      "Improve test scores",
			Description: "Structured preparation typically raises CLB by 1-2 bands within months; retake the test once mock scores clear the target.",
			Timeframe:   "3-6 months",
			Difficulty:  "medium",
			Steps:       []string{"Take a diagnostic test", "Follow a preparation course", "Rebook IELTS/CELPIP/TEF"},
			Resources:   []string{"IELTS preparation materials", "CLB level descriptors"},
		},
	},
	{
		keyword: "experience",
		action: models.ImprovementAction{
			Area:        "Work experience",
			Action:      "Accumulate qualifying experience",
			Description: "Continue working in the claimed occupation; ensure duties match the occupational classification used in the application.",
			Timeframe:   "12-36 months",
			Difficulty:  "medium",
			Steps:       []string{"Verify occupation classification", "Collect reference letters documenting duties"},
			Resources:   []string{"National occupational classification guides"},
		},
	},
	{
		keyword: "job",
		action: models.ImprovementAction{
			Area:        "Job offer",
			Action:      "Secure a qualifying job offer",
			Description: "A validated offer from an eligible employer removes this gap and often adds substantial points.",
			Timeframe:   "3-12 months",
			Difficulty:  "high",
			Steps:       []string{"Target employers with sponsorship history", "Confirm the offer meets program validity rules"},
			Resources:   []string{"Official job banks", "Licensed recruiters"},
		},
	},
	{
		keyword: "adaptability",
		action: models.ImprovementAction{
			Area:        "Adaptability",
			Action:      "Strengthen ties to the destination",
			Description: "Prior study, work visits or close relatives in the destination country contribute adaptability credit.",
			Timeframe:   "varies",
			Difficulty:  "medium",
		},
	},
	{
		keyword: "fund",
		action: models.ImprovementAction{
			Area:        "Settlement funds",
			Action:      "Build liquid savings to the required tier",
			Description: "Funds must be unencumbered and held long enough to satisfy proof-of-funds rules for the applicant's family size.",
			Timeframe:   "6-18 months",
			Difficulty:  "medium",
			Steps:       []string{"Confirm the tier for your family size", "Consolidate savings into provable accounts"},
		},
	},
	{
		keyword: "business",
		action: models.ImprovementAction{
			Area:        "Business plan",
			Action:      "Prepare a compliant business plan",
			Description: "Entrepreneur streams score the plan's viability and local economic benefit; professional review materially improves outcomes.",
			Timeframe:   "2-6 months",
			Difficulty:  "high",
		},
	},
}

// genericPlan is the fallback for criteria without a mapped template.
var genericPlan = models.ImprovementAction{
	Area:        "General",
	Action:      "Address unmet requirement",
	Description: "Review the program's published requirement and gather evidence or improvements to close the gap.",
	Timeframe:   "varies",
	Difficulty:  "medium",
}

// planFor returns the remediation template for a criterion id.
func planFor(criterionID string) models.ImprovementAction {
	id := normalizeID(criterionID)
	for _, tpl := range improvementPlans {
		if strings.Contains(id, tpl.keyword) {
			return tpl.action
		}
	}
	generic := genericPlan
	generic.Area = criterionID
	return generic
}

// pathwayPrograms suggests concrete programs per pathway type and country.
// Keys are lowercased country names; "default" covers the rest.
var pathwayPrograms = map[string]map[string][]string{
	"study": {
		"canada":    {"Study Permit with PGWP", "Canadian Experience Class (post-graduation)"},
		"australia": {"Student visa (subclass 500)", "Temporary Graduate visa (subclass 485)"},
		"uk":        {"Student visa", "Graduate visa"},
		"default":   {"Study-to-residence pathways"},
	},
	"temporary-work": {
		"canada":    {"Temporary Foreign Worker Program", "International Mobility Program"},
		"australia": {"Temporary Skill Shortage visa (subclass 482)"},
		"uk":        {"Skilled Worker visa (temporary sponsorship)"},
		"default":   {"Employer-sponsored temporary work permits"},
	},
	"regional": {
		"canada":    {"Provincial Nominee Program", "Atlantic Immigration Program", "Rural and Northern Immigration Pilot"},
		"australia": {"Skilled Work Regional visa (subclass 491)"},
		"uk":        {"Scale-up visa"},
		"default":   {"Regional nomination streams"},
	},
	"business": {
		"canada":    {"Start-up Visa Program", "Provincial entrepreneur streams"},
		"australia": {"Business Innovation and Investment visa (subclass 188)"},
		"uk":        {"Innovator Founder visa"},
		"default":   {"Entrepreneur and investor streams"},
	},
	"family": {
		"canada":    {"Family Class sponsorship"},
		"australia": {"Family stream visas"},
		"uk":        {"Family visas"},
		"default":   {"Family sponsorship routes"},
	},
}

func suggestedPrograms(pathwayType, country string) []string {
	byCountry, ok := pathwayPrograms[pathwayType]
	if !ok {
		return nil
	}
	if programs, ok := byCountry[strings.ToLower(country)]; ok {
		return programs
	}
	return byCountry["default"]
}
