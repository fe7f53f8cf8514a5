package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/models"
)

func setupMiniredis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func testAnalysisJSON(t *testing.T) []byte {
	age := 29.0
	clb := 9
	data, err := json.Marshal(models.ProfileAnalysis{
		UserID:     "user-1",
		Age:        &age,
		EnglishCLB: &clb,
		HasSpouse:  true,
		Dependents: 1,
	})
	require.NoError(t, err)
	return data
}

func TestStore_AnalyzeProfile_FromDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT analysis FROM profile_analyses").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"analysis"}).AddRow(testAnalysisJSON(t)))

	store := NewStore(db, setupMiniredis(t), time.Hour, logger.NewTestLogger(t))

	analysis, err := store.AnalyzeProfile(context.Background(), "user-1", "")

	assert.NoError(t, err)
	require.NotNil(t, analysis)
	assert.Equal(t, "user-1", analysis.UserID)
	require.NotNil(t, analysis.Age)
	assert.Equal(t, 29.0, *analysis.Age)
	assert.Equal(t, 3, analysis.FamilySize())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AnalyzeProfile_SessionFallsBackToLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT analysis FROM profile_analyses").
		WithArgs("user-1", "session-9").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT analysis FROM profile_analyses").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"analysis"}).AddRow(testAnalysisJSON(t)))

	store := NewStore(db, nil, time.Hour, logger.NewTestLogger(t))

	analysis, err := store.AnalyzeProfile(context.Background(), "user-1", "session-9")

	assert.NoError(t, err)
	assert.NotNil(t, analysis)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AnalyzeProfile_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT analysis FROM profile_analyses").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	store := NewStore(db, nil, time.Hour, logger.NewTestLogger(t))

	analysis, err := store.AnalyzeProfile(context.Background(), "ghost", "")

	assert.Nil(t, analysis)
	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeProfileNotFound, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestStore_AnalyzeProfile_CacheHitSkipsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rdb := setupMiniredis(t)
	require.NoError(t, rdb.Set(context.Background(), "profile:analysis:user-1", testAnalysisJSON(t), time.Hour).Err())

	store := NewStore(db, rdb, time.Hour, logger.NewTestLogger(t))

	analysis, err := store.AnalyzeProfile(context.Background(), "user-1", "")

	assert.NoError(t, err)
	assert.NotNil(t, analysis)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveAnalysis_InvalidatesCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO profile_analyses").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rdb := setupMiniredis(t)
	require.NoError(t, rdb.Set(context.Background(), "profile:analysis:user-1", "stale", time.Hour).Err())

	store := NewStore(db, rdb, time.Hour, logger.NewTestLogger(t))

	err = store.SaveAnalysis(context.Background(), &models.ProfileAnalysis{UserID: "user-1"})

	assert.NoError(t, err)
	_, cacheErr := rdb.Get(context.Background(), "profile:analysis:user-1").Result()
	assert.ErrorIs(t, cacheErr, redis.Nil)
	assert.NoError(t, mock.ExpectationsWereMet())
}
