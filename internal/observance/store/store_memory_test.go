package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altar/internal/observance"
	"altar/pkg/platform/sentinel"
)

var day1 = time.Date(2024, 4, 22, 6, 0, 0, 0, time.UTC)

func mustObservance(t *testing.T, id, userID string, ruleID, points int, at time.Time) *observance.Observance {
	t.Helper()
	o, err := observance.NewObservance(id, userID, ruleID, points, at)
	require.NoError(t, err)
	return o
}

func TestInMemoryStore_Record(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	require.NoError(t, s.Record(ctx, mustObservance(t, "1", "u1", 4, 5, day1)))
	require.NoError(t, s.Record(ctx, mustObservance(t, "2", "u1", 7, 10, day1.Add(time.Hour))))

	t.Run("same rule same day conflicts", func(t *testing.T) {
		err := s.Record(ctx, mustObservance(t, "3", "u1", 4, 5, day1.Add(2*time.Hour)))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("same rule next day is accepted", func(t *testing.T) {
		require.NoError(t, s.Record(ctx, mustObservance(t, "4", "u1", 4, 5, day1.Add(24*time.Hour))))
	})

	t.Run("other users are independent", func(t *testing.T) {
		require.NoError(t, s.Record(ctx, mustObservance(t, "5", "u2", 4, 5, day1)))
	})

	totals, err := s.Totals(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 20, totals.Points)
	assert.Equal(t, 3, totals.Observances)
	assert.Equal(t, day1.Add(24*time.Hour), totals.LastRecorded)

	list, err := s.ListByUser(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "4", list[0].ID)
	assert.Equal(t, "2", list[1].ID)

	observed, err := s.ObservedOn(ctx, "u1", observance.DayOf(day1), []int{9, 7, 4, 4})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 7}, observed)
}

func TestInMemoryStore_UnknownUser(t *testing.T) {
	s := NewInMemory()
	totals, err := s.Totals(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, totals)

	list, err := s.ListByUser(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInMemoryStore_StoresCopies(t *testing.T) {
	s := NewInMemory()
	o := mustObservance(t, "1", "u1", 4, 5, day1)
	require.NoError(t, s.Record(context.Background(), o))
	o.Points = 99

	totals, err := s.Totals(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, totals.Points)
}
