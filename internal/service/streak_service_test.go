package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newStreakFixture() (StreakService, *memoryStreakRepo) {
	repo := newMemoryStreakRepo()
	return NewStreakService(repo, testLogger()), repo
}

func TestStreakUpdateFirstSubmission(t *testing.T) {
	svc, repo := newStreakFixture()
	day := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)

	current, err := svc.Update(context.Background(), 1, day)
	require.NoError(t, err)
	require.Equal(t, 1, current)

	stored := repo.streaks[1]
	require.Equal(t, 1, stored.LongestStreak)
	require.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), stored.LastSubmissionDate)
}

func TestStreakUpdateSameDayIdempotent(t *testing.T) {
	svc, _ := newStreakFixture()
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	_, err := svc.Update(ctx, 1, day)
	require.NoError(t, err)

	current, err := svc.Update(ctx, 1, day.Add(10*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, current)
}

func TestStreakUpdateWithinToleranceExtends(t *testing.T) {
	svc, _ := newStreakFixture()
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.Update(ctx, 1, day)
	require.NoError(t, err)

	current, err := svc.Update(ctx, 1, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, 2, current)

	current, err = svc.Update(ctx, 1, day.AddDate(0, 0, 4))
	require.NoError(t, err)
	require.Equal(t, 3, current)
}

func TestStreakUpdateLongGapResets(t *testing.T) {
	svc, repo := newStreakFixture()
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := svc.Update(ctx, 1, day.AddDate(0, 0, i))
		require.NoError(t, err)
	}

	current, err := svc.Update(ctx, 1, day.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Equal(t, 1, current)

	stored := repo.streaks[1]
	require.Equal(t, 3, stored.LongestStreak)
}

func TestStreakUpdateIgnoresOutOfOrderDates(t *testing.T) {
	svc, repo := newStreakFixture()
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.Update(ctx, 1, day)
	require.NoError(t, err)
	_, err = svc.Update(ctx, 1, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	current, err := svc.Update(ctx, 1, day.AddDate(0, 0, -5))
	require.NoError(t, err)
	require.Equal(t, 2, current)

	stored := repo.streaks[1]
	require.Equal(t, day.AddDate(0, 0, 1), stored.LastSubmissionDate)
}

func TestStreakCurrentWithoutRecord(t *testing.T) {
	svc, _ := newStreakFixture()

	current, err := svc.Current(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, 0, current)
}
