package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Jam232006/pulse-lms/internal/models"
)

func TestRiskRepoUpsertScoreReplacesRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRiskRepository(db)
	ctx := context.Background()

	first := models.RiskScore{
		UserID:                201,
		BaselineActivityScore: 10,
		CurrentActivityScore:  8,
		RiskScore:             2.5,
		RiskLevel:             models.RiskLevelLow,
		LastUpdated:           time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.UpsertScore(ctx, &first))

	second := models.RiskScore{
		UserID:                201,
		BaselineActivityScore: 10,
		CurrentActivityScore:  3,
		RiskScore:             7.5,
		RiskLevel:             models.RiskLevelHigh,
		LastUpdated:           time.Now(),
	}
	require.NoError(t, repo.UpsertScore(ctx, &second))

	stored, err := repo.GetScore(ctx, 201)
	require.NoError(t, err)
	require.InDelta(t, 7.5, stored.RiskScore, 1e-9)
	require.Equal(t, models.RiskLevelHigh, stored.RiskLevel)
	require.InDelta(t, 3, stored.CurrentActivityScore, 1e-9)

	var count int64
	require.NoError(t, db.Model(&models.RiskScore{}).Where("user_id = ?", 201).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRiskRepoGetScoreMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRiskRepository(db)

	_, err := repo.GetScore(context.Background(), 299)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRiskRepoHistoryNewestFirstWithLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRiskRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		entry := models.RiskHistory{
			UserID:     202,
			RiskScore:  float64(i),
			RiskLevel:  models.RiskLevelLow,
			RecordedAt: base.AddDate(0, 0, i),
		}
		require.NoError(t, repo.AppendHistory(ctx, &entry))
	}

	entries, err := repo.ListHistory(ctx, 202, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.InDelta(t, 4, entries[0].RiskScore, 1e-9)
	require.InDelta(t, 2, entries[2].RiskScore, 1e-9)

	// Zero falls back to the default window.
	entries, err = repo.ListHistory(ctx, 202, 0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
}
