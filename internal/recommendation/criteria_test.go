// internal/recommendation/criteria_test.go
package recommendation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"immigration-workers/internal/models"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func ageCriterion(required bool) models.EligibilityCriterion {
	return models.EligibilityCriterion{
		CriterionID: "age",
		Name:        "Age",
		Type:        models.CriterionRange,
		Required:    required,
		Points:      100,
		Range: &models.RangeSpec{
			Min:      fptr(18),
			Max:      fptr(44),
			IdealMin: fptr(25),
			IdealMax: fptr(32),
		},
	}
}

func TestEvaluateRange_AgeBands(t *testing.T) {
	tests := []struct {
		name      string
		age       float64
		wantScore int
	}{
		{"within ideal band", 29, 100},
		{"between min and ideal", 20, 64},
		{"above maximum decays", 50, 43},
		{"below minimum decays", 15, 42},
		{"at hard minimum", 18, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &models.ProfileAnalysis{Age: fptr(tt.age)}
			res := EvaluateCriterion(ageCriterion(true), profile)
			assert.Equal(t, tt.wantScore, res.Score)
			assert.Equal(t, float64(tt.wantScore), res.EarnedPoints)
			assert.Equal(t, tt.age, res.UserValue)
		})
	}
}

func TestEvaluateRange_MissingData(t *testing.T) {
	res := EvaluateCriterion(ageCriterion(true), &models.ProfileAnalysis{})
	assert.Equal(t, 0, res.Score)
	assert.Contains(t, res.Message, "No data")
}

func TestEvaluateRange_MissingPayload(t *testing.T) {
	crit := ageCriterion(true)
	crit.Range = nil
	res := EvaluateCriterion(crit, &models.ProfileAnalysis{Age: fptr(30)})
	assert.Equal(t, 0, res.Score)
	assert.Contains(t, res.Message, "payload missing")
}

func TestEvaluateLevel(t *testing.T) {
	crit := models.EligibilityCriterion{
		CriterionID: "education",
		Name:        "Education level",
		Type:        models.CriterionLevel,
		Points:      80,
		Levels: []models.LevelOption{
			{Value: 3, Label: "Bachelor", Points: 50},
			{Value: 5, Label: "Master", Points: 100},
		},
	}

	tests := []struct {
		name      string
		level     int
		wantScore int
	}{
		{"exact top match", 5, 100},
		{"exact lower match", 3, 50},
		{"between levels earns the lower tier", 4, 50},
		{"above all levels earns the highest passed tier", 7, 100},
		{"below every level", 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &models.ProfileAnalysis{HighestEducationLevel: iptr(tt.level)}
			res := EvaluateCriterion(crit, profile)
			assert.Equal(t, tt.wantScore, res.Score)
		})
	}

	t.Run("missing data", func(t *testing.T) {
		res := EvaluateCriterion(crit, &models.ProfileAnalysis{})
		assert.Equal(t, 0, res.Score)
	})
}

func TestEvaluateLanguage(t *testing.T) {
	crit := models.EligibilityCriterion{
		CriterionID: "language",
		Name:        "Official language proficiency",
		Type:        models.CriterionLanguage,
		Points:      50,
		Language: &models.LanguageSpec{
			Languages: []string{"English"},
			MinLevel:  7,
			MaxLevel:  10,
		},
	}

	t.Run("above minimum climbs the band", func(t *testing.T) {
		res := EvaluateCriterion(crit, &models.ProfileAnalysis{EnglishCLB: iptr(9)})
		assert.Equal(t, 83, res.Score)
	})

	t.Run("at minimum earns half credit", func(t *testing.T) {
		res := EvaluateCriterion(crit, &models.ProfileAnalysis{EnglishCLB: iptr(7)})
		assert.Equal(t, 50, res.Score)
	})

	t.Run("below minimum is proportional", func(t *testing.T) {
		res := EvaluateCriterion(crit, &models.ProfileAnalysis{EnglishCLB: iptr(5)})
		assert.Equal(t, 36, res.Score)
	})

	t.Run("multiple languages average", func(t *testing.T) {
		both := crit
		both.Language = &models.LanguageSpec{
			Languages: []string{"English", "French"},
			MinLevel:  7,
			MaxLevel:  10,
		}
		res := EvaluateCriterion(both, &models.ProfileAnalysis{EnglishCLB: iptr(7)})
		assert.Equal(t, 25, res.Score)
	})

	t.Run("missing payload", func(t *testing.T) {
		bad := crit
		bad.Language = nil
		res := EvaluateCriterion(bad, &models.ProfileAnalysis{EnglishCLB: iptr(9)})
		assert.Equal(t, 0, res.Score)
	})
}

func TestEvaluateBoolean(t *testing.T) {
	crit := models.EligibilityCriterion{
		CriterionID: "job_offer",
		Name:        "Valid job offer",
		Type:        models.CriterionBoolean,
		Points:      60,
	}

	res := EvaluateCriterion(crit, &models.ProfileAnalysis{HasJobOffer: true})
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, float64(60), res.EarnedPoints)

	res = EvaluateCriterion(crit, &models.ProfileAnalysis{})
	assert.Equal(t, 0, res.Score)

	unknown := crit
	unknown.CriterionID = "quota_slot"
	res = EvaluateCriterion(unknown, &models.ProfileAnalysis{HasJobOffer: true})
	assert.Equal(t, 0, res.Score)
	assert.Contains(t, res.Message, "No recorded fact")
}

func TestEvaluateComposite(t *testing.T) {
	crit := models.EligibilityCriterion{
		CriterionID: "adaptability",
		Name:        "Adaptability",
		Type:        models.CriterionComposite,
		Points:      40,
		Factors: []models.FactorSpec{
			{ID: "job_offer", Name: "Arranged employment", Points: 30},
			{ID: "business_experience", Name: "Business background", Points: 30},
			{ID: "relatives", Name: "Relatives in destination", Points: 40},
		},
	}

	profile := &models.ProfileAnalysis{HasJobOffer: true, HasRelativesAbroad: true}
	res := EvaluateCriterion(crit, profile)
	assert.Equal(t, 70, res.Score)
	assert.Equal(t, "2 of 3 factors satisfied", res.Message)

	res = EvaluateCriterion(crit, &models.ProfileAnalysis{})
	assert.Equal(t, 0, res.Score)
}

func TestEvaluateComposite_NumericFactors(t *testing.T) {
	crit := models.EligibilityCriterion{
		CriterionID: "profile_strength",
		Name:        "Profile strength",
		Type:        models.CriterionComposite,
		Points:      20,
		Factors: []models.FactorSpec{
			{ID: "work_experience", Name: "Any work experience", Points: 50},
			{ID: "settlement_funds", Name: "Any settlement funds", Points: 50},
		},
	}

	profile := &models.ProfileAnalysis{TotalYearsOfExperience: fptr(2)}
	res := EvaluateCriterion(crit, profile)
	assert.Equal(t, 50, res.Score)
}

func TestEvaluateMoney(t *testing.T) {
	crit := models.EligibilityCriterion{
		CriterionID: "settlement_funds",
		Name:        "Settlement funds",
		Type:        models.CriterionMoney,
		Required:    true,
		Points:      50,
		Money: &models.MoneySpec{
			Currency: "CAD",
			Amounts: []models.MoneyTier{
				{FamilySize: 1, Amount: 14315},
				{FamilySize: 2, Amount: 17826},
				{FamilySize: 3, Amount: 21912},
			},
		},
	}

	t.Run("surplus climbs toward double the requirement", func(t *testing.T) {
		res := EvaluateCriterion(crit, &models.ProfileAnalysis{LiquidAssets: fptr(20000)})
		assert.Equal(t, 70, res.Score)
	})

	t.Run("shortfall is proportional below half credit", func(t *testing.T) {
		res := EvaluateCriterion(crit, &models.ProfileAnalysis{LiquidAssets: fptr(5000)})
		assert.Equal(t, 17, res.Score)
	})

	t.Run("double the requirement caps at 100", func(t *testing.T) {
		res := EvaluateCriterion(crit, &models.ProfileAnalysis{LiquidAssets: fptr(40000)})
		assert.Equal(t, 100, res.Score)
	})

	t.Run("family size selects the tier", func(t *testing.T) {
		profile := &models.ProfileAnalysis{LiquidAssets: fptr(17826), HasSpouse: true}
		res := EvaluateCriterion(crit, profile)
		assert.Equal(t, 50, res.Score)
	})

	t.Run("family larger than any tier uses the largest", func(t *testing.T) {
		profile := &models.ProfileAnalysis{LiquidAssets: fptr(21912), HasSpouse: true, Dependents: 4}
		res := EvaluateCriterion(crit, profile)
		assert.Equal(t, 50, res.Score)
	})

	t.Run("missing assets", func(t *testing.T) {
		res := EvaluateCriterion(crit, &models.ProfileAnalysis{})
		assert.Equal(t, 0, res.Score)
	})
}

func TestRequiredAmount_NearestLargerTier(t *testing.T) {
	tiers := []models.MoneyTier{
		{FamilySize: 1, Amount: 10000},
		{FamilySize: 4, Amount: 25000},
	}
	assert.Equal(t, float64(25000), requiredAmount(tiers, 2))
	assert.Equal(t, float64(10000), requiredAmount(tiers, 1))
	assert.Equal(t, float64(25000), requiredAmount(tiers, 6))
	assert.Equal(t, float64(0), requiredAmount(nil, 1))
}

func TestEvaluateCriterion_UnknownType(t *testing.T) {
	crit := models.EligibilityCriterion{CriterionID: "x", Name: "X", Type: "lottery", Points: 10}
	res := EvaluateCriterion(crit, &models.ProfileAnalysis{})
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, "Unknown criterion type", res.Message)
}

func TestNewResult_ClampsAndRounds(t *testing.T) {
	crit := models.EligibilityCriterion{CriterionID: "age", Name: "Age", Points: 33}
	res := newResult(crit, 150, "clamped", nil)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, float64(33), res.EarnedPoints)

	res = newResult(crit, -5, "clamped", nil)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, float64(0), res.EarnedPoints)

	// 50% of 33 points is 16.5, ties round up.
	res = newResult(crit, 50, "rounded", nil)
	assert.Equal(t, float64(17), res.EarnedPoints)
}
