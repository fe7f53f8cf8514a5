// internal/recommendation/ranker.go
package recommendation

import (
	"math"
	"sort"

	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/models"
)

// RankingWeights blend the five sub-scores into one composite. Only relative
// magnitude matters: scaling all weights by the same constant leaves the
// composite unchanged.
type RankingWeights struct {
	Match          float64 `mapstructure:"match"`
	Preference     float64 `mapstructure:"preference"`
	ProcessingTime float64 `mapstructure:"processing_time"`
	Cost           float64 `mapstructure:"cost"`
	Success        float64 `mapstructure:"success"`
}

// RankerParams are the ranking stage's calibration constants.
type RankerParams struct {
	Weights RankingWeights `mapstructure:"weights"`
	// PriorityShift moves weight toward a flagged priority factor.
	PriorityShift float64 `mapstructure:"priority_shift"`
	// SortByShift moves weight toward an explicit sortBy field.
	SortByShift float64 `mapstructure:"sort_by_shift"`
	// MinWeight keeps every factor represented after shifts.
	MinWeight float64 `mapstructure:"min_weight"`
}

func DefaultRankerParams() RankerParams {
	return RankerParams{
		Weights: RankingWeights{
			Match:          40,
			Preference:     20,
			ProcessingTime: 15,
			Cost:           15,
			Success:        10,
		},
		PriorityShift: 10,
		SortByShift:   15,
		MinWeight:     5,
	}
}

// Ranker orders matched programs by a weighted composite of match quality,
// preference alignment, processing time, cost and success probability.
type Ranker struct {
	params RankerParams
	logger logger.Logger
}

func NewRanker(params RankerParams, log logger.Logger) *Ranker {
	return &Ranker{
		params: params,
		logger: log.WithFields(map[string]interface{}{"component": "ranker"}),
	}
}

// RankRecommendations computes composite scores and sorts descending. A failure
// scoring one program falls back to its match score rather than dropping it.
func (r *Ranker) RankRecommendations(matches []models.MatchResult, prefs models.Preferences) []models.RankedRecommendation {
	weights := r.weightsFor(prefs)

	ranked := make([]models.RankedRecommendation, 0, len(matches))
	for i := range matches {
		ranked = append(ranked, r.rankOne(&matches[i], prefs, weights))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CompositeScore != ranked[j].CompositeScore {
			return ranked[i].CompositeScore > ranked[j].CompositeScore
		}
		if ranked[i].MatchScore != ranked[j].MatchScore {
			return ranked[i].MatchScore > ranked[j].MatchScore
		}
		return ranked[i].ProgramID < ranked[j].ProgramID
	})
	return ranked
}

func (r *Ranker) rankOne(match *models.MatchResult, prefs models.Preferences, weights RankingWeights) (rec models.RankedRecommendation) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("ranking failed, falling back to match score", map[string]interface{}{
				"programId": match.ProgramID,
				"panic":     p,
			})
			rec = models.RankedRecommendation{
				MatchResult:    *match,
				CompositeScore: match.MatchScore,
				ScoreComponents: models.ScoreComponents{
					MatchScore: match.MatchScore,
				},
			}
		}
	}()

	components := models.ScoreComponents{
		MatchScore:          match.MatchScore,
		PreferenceScore:     preferenceScore(match, prefs),
		ProcessingTimeScore: processingTimeScore(match.Program),
		CostScore:           costScore(match.Program),
		SuccessScore:        successScore(match.Program),
	}

	weighted := float64(components.MatchScore)*weights.Match +
		float64(components.PreferenceScore)*weights.Preference +
		float64(components.ProcessingTimeScore)*weights.ProcessingTime +
		float64(components.CostScore)*weights.Cost +
		float64(components.SuccessScore)*weights.Success
	totalWeight := weights.Match + weights.Preference + weights.ProcessingTime + weights.Cost + weights.Success

	return models.RankedRecommendation{
		MatchResult:     *match,
		CompositeScore:  roundHalfUp(weighted / totalWeight),
		ScoreComponents: components,
	}
}

// weightsFor applies priority-factor and sortBy shifts to the default weights.
func (r *Ranker) weightsFor(prefs models.Preferences) RankingWeights {
	w := r.params.Weights

	shift := func(target *float64, amount float64) {
		*target += amount
		w.Match -= amount / 2
		w.Preference -= amount / 2
	}
	for _, factor := range prefs.PriorityFactors {
		switch factor {
		case "processing_time":
			shift(&w.ProcessingTime, r.params.PriorityShift)
		case "cost":
			shift(&w.Cost, r.params.PriorityShift)
		case "success_rate":
			shift(&w.Success, r.params.PriorityShift)
		}
	}
	switch prefs.SortBy {
	case "processing_time":
		w.ProcessingTime += r.params.SortByShift
		w.Match -= r.params.SortByShift
	case "cost":
		w.Cost += r.params.SortByShift
		w.Match -= r.params.SortByShift
	case "success_rate":
		w.Success += r.params.SortByShift
		w.Match -= r.params.SortByShift
	}

	w.Match = math.Max(w.Match, r.params.MinWeight)
	w.Preference = math.Max(w.Preference, r.params.MinWeight)
	w.ProcessingTime = math.Max(w.ProcessingTime, r.params.MinWeight)
	w.Cost = math.Max(w.Cost, r.params.MinWeight)
	w.Success = math.Max(w.Success, r.params.MinWeight)
	return w
}

// preferenceScore rewards alignment with the user's selected countries and
// pathway types around a neutral 50.
func preferenceScore(match *models.MatchResult, prefs models.Preferences) int {
	score := 50
	if len(prefs.Countries) > 0 {
		if containsFold(prefs.Countries, match.Country) {
			score += 20
		} else {
			score -= 20
		}
	}
	if len(prefs.PathwayTypes) > 0 {
		if containsFold(prefs.PathwayTypes, match.Category) {
			score += 20
		} else {
			score -= 10
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// processingTimeScore is a step function of the published maximum, in months.
func processingTimeScore(prog *models.Program) int {
	if prog == nil || prog.ProcessingTime == nil {
		return 50
	}
	months := prog.ProcessingTime.MaxMonths()
	switch {
	case months <= 3:
		return 100
	case months <= 6:
		return 90
	case months <= 9:
		return 80
	case months <= 12:
		return 70
	case months <= 18:
		return 50
	case months <= 24:
		return 30
	default:
		return 10
	}
}

// costScore is a step function of total fees.
func costScore(prog *models.Program) int {
	if prog == nil || prog.Fees == nil {
		return 50
	}
	total := prog.Fees.Total
	switch {
	case total <= 500:
		return 100
	case total <= 1000:
		return 90
	case total <= 1500:
		return 80
	case total <= 2000:
		return 70
	case total <= 3000:
		return 60
	case total <= 5000:
		return 50
	case total <= 10000:
		return 30
	default:
		return 10
	}
}

func successScore(prog *models.Program) int {
	if prog == nil || prog.SuccessRate == nil {
		return 50
	}
	return roundHalfUp(*prog.SuccessRate * 100)
}
