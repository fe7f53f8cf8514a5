// internal/models/program.go
package models

// CriterionType tags the evaluation formula attached to an eligibility criterion.
// The set is closed; evaluators switch over it exhaustively.
type CriterionType string

const (
	CriterionRange     CriterionType = "range"
	CriterionLevel     CriterionType = "level"
	CriterionLanguage  CriterionType = "language"
	CriterionBoolean   CriterionType = "boolean"
	CriterionComposite CriterionType = "composite"
	CriterionMoney     CriterionType = "money"
)

// Program is an immutable catalog entry describing one immigration program.
type Program struct {
	ID                  string                 `json:"id"`
	Name                string                 `json:"name"`
	Country             string                 `json:"country"`
	Category            string                 `json:"category"`
	Description         string                 `json:"description"`
	EligibilityCriteria []EligibilityCriterion `json:"eligibilityCriteria"`
	ProcessingTime      *ProcessingTime        `json:"processingTime,omitempty"`
	Fees                *Fees                  `json:"fees,omitempty"`
	SuccessRate         *float64               `json:"successRate,omitempty"`
}

// ProcessingTime is the published processing window for a program.
type ProcessingTime struct {
	Min  int    `json:"min"`
	Max  int    `json:"max"`
	Unit string `json:"unit"` // "weeks", "months" or "years"; months assumed when empty
}

// MaxMonths normalizes the upper bound of the processing window to months.
func (pt *ProcessingTime) MaxMonths() int {
	switch pt.Unit {
	case "weeks":
		return (pt.Max + 3) / 4
	case "years":
		return pt.Max * 12
	default:
		return pt.Max
	}
}

type Fees struct {
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// EligibilityCriterion is a tagged variant: exactly one of the type-specific
// payloads below is populated, selected by Type.
type EligibilityCriterion struct {
	CriterionID string        `json:"criterionId"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Type        CriterionType `json:"type"`
	Required    bool          `json:"required"`
	Points      float64       `json:"points"`

	Range    *RangeSpec     `json:"range,omitempty"`
	Levels   []LevelOption  `json:"levels,omitempty"`
	Language *LanguageSpec  `json:"language,omitempty"`
	Factors  []FactorSpec   `json:"factors,omitempty"`
	Money    *MoneySpec     `json:"money,omitempty"`
}

// RangeSpec bounds a numeric criterion. Nil bounds mean unbounded; nil ideal
// bounds default to the corresponding hard bound.
type RangeSpec struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	IdealMin *float64 `json:"idealMin,omitempty"`
	IdealMax *float64 `json:"idealMax,omitempty"`
	Unit     string   `json:"unit,omitempty"`
}

// LevelOption maps one ordinal value (e.g. an education level) to points.
type LevelOption struct {
	Value  int     `json:"value"`
	Label  string  `json:"label"`
	Points float64 `json:"points"`
}

// LanguageSpec lists the languages a criterion tests and the CLB band it expects.
type LanguageSpec struct {
	Languages []string `json:"languages"`
	MinLevel  int      `json:"minLevel"`
	MaxLevel  int      `json:"maxLevel"`
}

// FactorSpec is one factor of a composite criterion.
type FactorSpec struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Points float64 `json:"points"`
}

// MoneySpec defines settlement-fund tiers by family size.
type MoneySpec struct {
	Amounts  []MoneyTier `json:"amounts"`
	Currency string      `json:"currency"`
}

type MoneyTier struct {
	FamilySize int     `json:"family_size"`
	Amount     float64 `json:"amount"`
}
