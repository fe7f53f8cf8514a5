// internal/models/recommendation.go
package models

import "time"

// CriterionResult is the outcome of evaluating one criterion against a profile.
// EarnedPoints is always round(Score/100 * MaxPoints).
type CriterionResult struct {
	CriterionID  string      `json:"criterionId"`
	Name         string      `json:"name"`
	Required     bool        `json:"required"`
	Score        int         `json:"score"` // 0-100
	EarnedPoints float64     `json:"earnedPoints"`
	MaxPoints    float64     `json:"maxPoints"`
	Message      string      `json:"message"`
	UserValue    interface{} `json:"userValue,omitempty"`
}

type MatchCategory string

const (
	MatchExcellent MatchCategory = "excellent"
	MatchGood      MatchCategory = "good"
	MatchModerate  MatchCategory = "moderate"
	MatchPoor      MatchCategory = "poor"
)

// MatchResult is the aggregate fit of one profile against one program.
// Instances are built fresh per matching pass and never mutated across requests.
type MatchResult struct {
	ProgramID          string            `json:"programId"`
	ProgramName        string            `json:"programName"`
	Country            string            `json:"country"`
	Category           string            `json:"category"`
	MatchScore         int               `json:"matchScore"` // 0-100
	MatchCategory      MatchCategory     `json:"matchCategory"`
	KeyStrengths       []string          `json:"keyStrengths"`
	KeyWeaknesses      []string          `json:"keyWeaknesses"`
	EligibilityDetails []CriterionResult `json:"eligibilityDetails"`
	GapAnalysis        *GapAnalysis      `json:"gapAnalysis,omitempty"`

	// Program carries the catalog entry downstream so ranking can read
	// processing time, fees and success rate without a second catalog fetch.
	Program *Program `json:"program,omitempty"`
}

type GapSeverity string

const (
	SeverityLow    GapSeverity = "low"
	SeverityMedium GapSeverity = "medium"
	SeverityHigh   GapSeverity = "high"
)

// Gap describes one unmet required criterion.
type Gap struct {
	CriterionID   string      `json:"criterionId"`
	CriterionName string      `json:"criterionName"`
	Severity      GapSeverity `json:"severity"`
	UserValue     interface{} `json:"userValue,omitempty"`
	// RequiredValue is mined from free-text descriptions and is advisory only.
	RequiredValue *float64 `json:"requiredValue,omitempty"`
}

// ImprovementAction is one structured remediation step for a gap.
type ImprovementAction struct {
	Area        string   `json:"area"`
	Action      string   `json:"action"`
	Description string   `json:"description"`
	Timeframe   string   `json:"timeframe"`
	Difficulty  string   `json:"difficulty"`
	Steps       []string `json:"steps,omitempty"`
	Resources   []string `json:"resources,omitempty"`
}

// AlternativePathway suggests a different route when the current program fits poorly.
type AlternativePathway struct {
	Type              string   `json:"type"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	SuggestedPrograms []string `json:"suggestedPrograms,omitempty"`
}

type GapAnalysis struct {
	Gaps                []Gap                `json:"gaps"`
	ImprovementPlan     []ImprovementAction  `json:"improvementPlan"`
	AlternativePathways []AlternativePathway `json:"alternativePathways"`
}

// ScoreComponents are the sub-scores blended into the composite ranking score.
type ScoreComponents struct {
	MatchScore          int `json:"matchScore"`
	PreferenceScore     int `json:"preferenceScore"`
	ProcessingTimeScore int `json:"processingTimeScore"`
	CostScore           int `json:"costScore"`
	SuccessScore        int `json:"successScore"`
}

// RankedRecommendation is a match plus its composite ranking score.
type RankedRecommendation struct {
	MatchResult
	CompositeScore  int             `json:"compositeScore"`
	ScoreComponents ScoreComponents `json:"scoreComponents"`
	Alternative     bool            `json:"alternative,omitempty"`
}

// RecommendationSet is the final shaped result returned to callers.
type RecommendationSet struct {
	ID                       string                            `json:"id"`
	Results                  []RankedRecommendation            `json:"recommendationResults"`
	ByCountry                map[string][]RankedRecommendation `json:"recommendationsByCountry"`
	TotalCount               int                               `json:"totalCount"`
	PrimaryCount             int                               `json:"primaryCount"`
	AlternativeCount         int                               `json:"alternativeCount"`
	ProcessingTimeMs         int64                             `json:"processingTime"`
	GeneratedAt              time.Time                         `json:"generatedAt"`
}

// BudgetRange caps acceptable program fees.
type BudgetRange struct {
	Max float64 `json:"max"`
}

// Preferences are the user-selected constraints and priorities steering
// filtering and ranking.
type Preferences struct {
	Countries       []string     `json:"countries,omitempty"`
	PathwayTypes    []string     `json:"pathwayTypes,omitempty"`
	Timeframe       string       `json:"timeframe,omitempty"` // immediate, within-6-months, within-1-year, within-2-years
	BudgetRange     *BudgetRange `json:"budgetRange,omitempty"`
	PriorityFactors []string     `json:"priorityFactors,omitempty"` // processing_time, cost, success_rate
	SortBy          string       `json:"sortBy,omitempty"`
}

// RecommendationOptions shape one generateRecommendations call.
type RecommendationOptions struct {
	MaxResults                 int         `json:"maxResults"`
	IncludeGapAnalysis         *bool       `json:"includeGapAnalysis,omitempty"`
	IncludeAlternativePrograms *bool       `json:"includeAlternativePrograms,omitempty"`
	Preferences                Preferences `json:"preferences"`
}
