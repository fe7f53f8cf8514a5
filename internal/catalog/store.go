// Package catalog reads and maintains the immigration program catalog in
// PostgreSQL with a Redis read-through cache.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/common/metrics"
	"immigration-workers/internal/common/validation"
	"immigration-workers/internal/models"
)

const cacheKey = "catalog:programs"

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
		logger:   log.WithFields(map[string]interface{}{"component": "catalog-store"}),
	}
}

// GetAllPrograms returns every active catalog entry. Reads go cache-first;
// a cache failure falls through to the database. Entries that fail schema
// validation are skipped, never fatal.
func (s *Store) GetAllPrograms(ctx context.Context) ([]models.Program, error) {
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var programs []models.Program
			if err := json.Unmarshal([]byte(val), &programs); err == nil {
				metrics.CatalogCacheHits.WithLabelValues("hit").Inc()
				return programs, nil
			}
		}
		metrics.CatalogCacheHits.WithLabelValues("miss").Inc()
	}

	programs, err := s.loadPrograms(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(programs); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache catalog", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	return programs, nil
}

// GetProgram returns a single catalog entry by id.
func (s *Store) GetProgram(ctx context.Context, programID string) (*models.Program, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM immigration_programs WHERE id = $1 AND active = true`, programID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewProgramInvalidError(programID, "not found")
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get-program", err)
	}

	program, ok := s.decodeProgram(programID, raw)
	if !ok {
		return nil, apperrors.NewProgramInvalidError(programID, "failed schema validation")
	}
	return program, nil
}

func (s *Store) loadPrograms(ctx context.Context) ([]models.Program, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data FROM immigration_programs WHERE active = true ORDER BY id`)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("load-programs", err)
	}
	defer rows.Close()

	programs := []models.Program{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("load-programs", err)
		}

		program, ok := s.decodeProgram(id, raw)
		if !ok {
			continue
		}
		programs = append(programs, *program)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("load-programs", err)
	}

	return programs, nil
}

// decodeProgram validates and unmarshals one stored catalog document.
func (s *Store) decodeProgram(id string, raw []byte) (*models.Program, bool) {
	result, err := validation.ValidateProgramJSON(raw)
	if err != nil || !result.Valid {
		fields := map[string]interface{}{"programId": id}
		if result != nil {
			fields["violations"] = strings.Join(result.GetErrorMessages(), "; ")
		}
		s.logger.Warn("skipping invalid catalog entry", fields)
		return nil, false
	}

	var program models.Program
	if err := json.Unmarshal(raw, &program); err != nil {
		s.logger.Warn("skipping unreadable catalog entry", map[string]interface{}{
			"programId": id,
			"error":     err.Error(),
		})
		return nil, false
	}
	return &program, true
}

// UpsertProgram inserts or replaces one catalog entry. The document is
// validated against the program schema first, and the cached catalog is
// dropped so the next read sees the update.
func (s *Store) UpsertProgram(ctx context.Context, program *models.Program) error {
	doc := *program
	if doc.EligibilityCriteria == nil {
		// nil marshals to JSON null, which the schema's array type rejects.
		doc.EligibilityCriteria = []models.EligibilityCriterion{}
	}

	data, err := json.Marshal(&doc)
	if err != nil {
		return apperrors.NewProgramInvalidError(program.ID, err.Error())
	}

	result, err := validation.ValidateProgramJSON(data)
	if err != nil || !result.Valid {
		details := "failed schema validation"
		if result != nil && len(result.Errors) > 0 {
			details = strings.Join(result.GetErrorMessages(), "; ")
		}
		return apperrors.NewProgramInvalidError(program.ID, details)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO immigration_programs (id, data, active)
		VALUES ($1, $2, true)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, active = true`,
		program.ID, data)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("upsert-program", err)
	}

	// Stale reads are acceptable until the TTL expires, so a cache failure
	// only warns.
	if err := s.InvalidateCache(ctx); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", map[string]interface{}{
			"programId": program.ID,
			"error":     err.Error(),
		})
	}
	return nil
}

// InvalidateCache drops the cached catalog, forcing the next read to hit the
// database. UpsertProgram calls it after every write.
func (s *Store) InvalidateCache(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, cacheKey).Err()
}
