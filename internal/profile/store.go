// Package profile serves normalized profile analyses from PostgreSQL with a
// Redis read-through cache.
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/models"
)

type Store struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewStore(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *Store {
	return &Store{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "profile-store"}),
	}
}

// AnalyzeProfile returns the stored profile analysis for a user. Session-scoped
// analyses take precedence over the user's latest when sessionID is set.
func (s *Store) AnalyzeProfile(ctx context.Context, userID, sessionID string) (*models.ProfileAnalysis, error) {
	cacheKey := "profile:analysis:" + userID
	if sessionID != "" {
		cacheKey += ":" + sessionID
	}

	if s.redis != nil {
		if val, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var analysis models.ProfileAnalysis
			if err := json.Unmarshal([]byte(val), &analysis); err == nil {
				return &analysis, nil
			}
		}
	}

	analysis, err := s.loadAnalysis(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(analysis); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache profile analysis", map[string]interface{}{
					"userId": userID,
					"error":  err.Error(),
				})
			}
		}
	}

	return analysis, nil
}

func (s *Store) loadAnalysis(ctx context.Context, userID, sessionID string) (*models.ProfileAnalysis, error) {
	var raw []byte
	var err error

	if sessionID != "" {
		err = s.db.QueryRowContext(ctx, `
			SELECT analysis FROM profile_analyses
			WHERE user_id = $1 AND session_id = $2
			ORDER BY created_at DESC LIMIT 1`, userID, sessionID).Scan(&raw)
		if err == sql.ErrNoRows {
			// Fall back to the user's latest analysis from any session.
			err = s.db.QueryRowContext(ctx, `
				SELECT analysis FROM profile_analyses
				WHERE user_id = $1
				ORDER BY created_at DESC LIMIT 1`, userID).Scan(&raw)
		}
	} else {
		err = s.db.QueryRowContext(ctx, `
			SELECT analysis FROM profile_analyses
			WHERE user_id = $1
			ORDER BY created_at DESC LIMIT 1`, userID).Scan(&raw)
	}

	if err == sql.ErrNoRows {
		return nil, apperrors.NewProfileNotFoundError(userID)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("load-profile-analysis", err)
	}

	var analysis models.ProfileAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("decode-profile-analysis", err)
	}
	analysis.UserID = userID
	return &analysis, nil
}

// SaveAnalysis persists a profile analysis and invalidates its cache entries.
func (s *Store) SaveAnalysis(ctx context.Context, analysis *models.ProfileAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("encode-profile-analysis", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profile_analyses (user_id, session_id, analysis, created_at)
		VALUES ($1, $2, $3, NOW())`, analysis.UserID, analysis.SessionID, data)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("save-profile-analysis", err)
	}

	if s.redis != nil {
		keys := []string{"profile:analysis:" + analysis.UserID}
		if analysis.SessionID != "" {
			keys = append(keys, "profile:analysis:"+analysis.UserID+":"+analysis.SessionID)
		}
		if err := s.redis.Del(ctx, keys...).Err(); err != nil {
			s.logger.Warn("failed to invalidate profile cache", map[string]interface{}{
				"userId": analysis.UserID,
				"error":  err.Error(),
			})
		}
	}

	return nil
}
