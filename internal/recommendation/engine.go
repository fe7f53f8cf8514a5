// internal/recommendation/engine.go
package recommendation

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/common/metrics"
	"immigration-workers/internal/models"
)

// ProfileAnalyzer converts a raw user profile into a normalized ProfileAnalysis.
// Implemented outside this package; the engine consumes it read-only.
type ProfileAnalyzer interface {
	AnalyzeProfile(ctx context.Context, userID, sessionID string) (*models.ProfileAnalysis, error)
}

// CatalogService returns the immutable program catalog.
type CatalogService interface {
	GetAllPrograms(ctx context.Context) ([]models.Program, error)
}

// EngineConfig holds the orchestrator's defaults, overridable per request.
type EngineConfig struct {
	MaxResults                 int  `mapstructure:"max_results"`
	IncludeGapAnalysis         bool `mapstructure:"include_gap_analysis"`
	IncludeAlternativePrograms bool `mapstructure:"include_alternative_programs"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxResults:                 10,
		IncludeGapAnalysis:         true,
		IncludeAlternativePrograms: true,
	}
}

// Engine sequences the recommendation pipeline: profile analysis, catalog
// fetch, strict matching, gap analysis, ranking, relaxed backfill, and final
// result shaping. Single pass, no internal retries, no caching of results.
type Engine struct {
	profiles ProfileAnalyzer
	catalog  CatalogService
	matcher  *Matcher
	gaps     *GapAnalyzer
	ranker   *Ranker
	config   EngineConfig
	logger   logger.Logger
}

func NewEngine(
	profiles ProfileAnalyzer,
	catalog CatalogService,
	matcher *Matcher,
	gaps *GapAnalyzer,
	ranker *Ranker,
	config EngineConfig,
	log logger.Logger,
) *Engine {
	return &Engine{
		profiles: profiles,
		catalog:  catalog,
		matcher:  matcher,
		gaps:     gaps,
		ranker:   ranker,
		config:   config,
		logger:   log.WithFields(map[string]interface{}{"component": "recommendation-engine"}),
	}
}

// GenerateRecommendations runs the full pipeline for one user. Upstream fetch
// failures are fatal and return no partial result; everything downstream
// degrades per program instead of failing the batch.
func (e *Engine) GenerateRecommendations(ctx context.Context, userID, sessionID string, opts models.RecommendationOptions) (*models.RecommendationSet, error) {
	start := time.Now()

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = e.config.MaxResults
	}
	includeGaps := e.config.IncludeGapAnalysis
	if opts.IncludeGapAnalysis != nil {
		includeGaps = *opts.IncludeGapAnalysis
	}
	includeAlternatives := e.config.IncludeAlternativePrograms
	if opts.IncludeAlternativePrograms != nil {
		includeAlternatives = *opts.IncludeAlternativePrograms
	}

	profile, err := e.profiles.AnalyzeProfile(ctx, userID, sessionID)
	if err != nil {
		// Keep the store's code and retry policy when it already classified
		// the failure (e.g. profile not found is terminal, not retryable).
		if stdErr, ok := err.(*apperrors.StandardError); ok {
			return nil, stdErr
		}
		return nil, apperrors.NewProfileFetchFailedError(userID, err)
	}

	programs, err := e.catalog.GetAllPrograms(ctx)
	if err != nil {
		return nil, apperrors.NewCatalogFetchFailedError(err)
	}

	matches := e.matcher.MatchPrograms(profile, programs, opts.Preferences)
	metrics.ProgramsMatched.Add(float64(len(matches)))

	if includeGaps {
		matches = e.gaps.AnalyzeGaps(profile, matches)
	}

	ranked := e.ranker.RankRecommendations(matches, opts.Preferences)
	primaryCount := len(ranked)
	alternativeCount := 0

	if includeAlternatives && len(ranked) < maxResults {
		exclude := make(map[string]bool, len(ranked))
		for _, rec := range ranked {
			exclude[rec.ProgramID] = true
		}

		relaxed := e.matcher.MatchProgramsRelaxed(profile, programs, exclude)
		if includeGaps {
			relaxed = e.gaps.AnalyzeGaps(profile, relaxed)
		}
		backfill := e.ranker.RankRecommendations(relaxed, opts.Preferences)

		deficit := maxResults - len(ranked)
		for i := 0; i < len(backfill) && i < deficit; i++ {
			backfill[i].Alternative = true
			ranked = append(ranked, backfill[i])
			alternativeCount++
		}
	}

	if len(ranked) > maxResults {
		trimmed := len(ranked) - maxResults
		ranked = ranked[:maxResults]
		if primaryCount > maxResults {
			primaryCount = maxResults
		}
		e.logger.Debug("truncated recommendations", map[string]interface{}{"trimmed": trimmed})
	}

	byCountry := make(map[string][]models.RankedRecommendation)
	for _, rec := range ranked {
		byCountry[rec.Country] = append(byCountry[rec.Country], rec)
	}

	elapsed := time.Since(start)
	metrics.RecommendationsGenerated.Inc()
	metrics.RecommendationDuration.Observe(elapsed.Seconds())

	e.logger.Info("recommendations generated", map[string]interface{}{
		"userId":           userID,
		"totalPrograms":    len(programs),
		"primaryCount":     primaryCount,
		"alternativeCount": alternativeCount,
		"durationMs":       elapsed.Milliseconds(),
	})

	return &models.RecommendationSet{
		ID:               uuid.NewString(),
		Results:          ranked,
		ByCountry:        byCountry,
		TotalCount:       len(ranked),
		PrimaryCount:     primaryCount,
		AlternativeCount: alternativeCount,
		ProcessingTimeMs: elapsed.Milliseconds(),
		GeneratedAt:      time.Now().UTC(),
	}, nil
}
