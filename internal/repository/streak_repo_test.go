package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Jam232006/pulse-lms/internal/models"
)

func TestStreakRepoSaveUpserts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStreakRepository(db)
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first := models.SubmissionStreak{
		UserID:             301,
		CurrentStreak:      1,
		LongestStreak:      1,
		LastSubmissionDate: day,
	}
	require.NoError(t, repo.Save(ctx, &first))

	second := models.SubmissionStreak{
		UserID:             301,
		CurrentStreak:      2,
		LongestStreak:      2,
		LastSubmissionDate: day.AddDate(0, 0, 1),
	}
	require.NoError(t, repo.Save(ctx, &second))

	stored, err := repo.Get(ctx, 301)
	require.NoError(t, err)
	require.Equal(t, 2, stored.CurrentStreak)
	require.Equal(t, 2, stored.LongestStreak)

	var count int64
	require.NoError(t, db.Model(&models.SubmissionStreak{}).Where("user_id = ?", 301).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestStreakRepoGetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStreakRepository(db)

	_, err := repo.Get(context.Background(), 399)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
