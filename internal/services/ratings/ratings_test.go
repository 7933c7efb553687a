package ratings

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/lealre/ratebeer-backend/internal/apperr"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
	"github.com/lealre/ratebeer-backend/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestAggregator(t *testing.T) *Aggregator {
	t.Helper()
	return NewAggregator(store.NewMemory[mongodb.GroupRatingDb]())
}

func scoresByUser(groupRating GroupRating) map[string]int {
	scores := make(map[string]int, len(groupRating.Entries))
	for _, entry := range groupRating.Entries {
		scores[entry.UserId] = entry.Score
	}
	return scores
}

func TestSubmitRating(t *testing.T) {
	ctx := context.Background()

	t.Run("First rating creates the group rating", func(t *testing.T) {
		a := newTestAggregator(t)

		groupRating, err := a.SubmitRating(ctx, "s1", 10, "alice", "Alice", 4)
		require.NoError(t, err)
		require.Equal(t, "s1", groupRating.SessionId)
		require.Equal(t, 10, groupRating.ItemId)
		require.Equal(t, 1, groupRating.Count)
		require.Equal(t, 4.0, groupRating.AverageScore)
		require.Len(t, groupRating.Entries, 1)
		require.Equal(t, "Alice", groupRating.Entries[0].DisplayName)
	})

	t.Run("Resubmitting replaces the previous score", func(t *testing.T) {
		a := newTestAggregator(t)

		_, err := a.SubmitRating(ctx, "s1", 10, "alice", "Alice", 3)
		require.NoError(t, err)
		groupRating, err := a.SubmitRating(ctx, "s1", 10, "alice", "Alice", 5)
		require.NoError(t, err)

		require.Equal(t, 1, groupRating.Count)
		require.Equal(t, 5.0, groupRating.AverageScore)
		require.Equal(t, map[string]int{"alice": 5}, scoresByUser(groupRating))
	})

	t.Run("Average is the mean of all entries", func(t *testing.T) {
		a := newTestAggregator(t)

		var groupRating GroupRating
		var err error
		for i, score := range []int{2, 3, 4, 5} {
			groupRating, err = a.SubmitRating(ctx, "s1", 10, fmt.Sprintf("user-%d", i), "", score)
			require.NoError(t, err)
		}

		require.Equal(t, 4, groupRating.Count)
		require.InDelta(t, 3.5, groupRating.AverageScore, 1e-9)
		require.Equal(t, "User", groupRating.Entries[0].DisplayName)
	})

	t.Run("Score out of range is rejected and nothing is stored", func(t *testing.T) {
		a := newTestAggregator(t)

		for _, score := range []int{0, 6, -1} {
			_, err := a.SubmitRating(ctx, "s1", 10, "alice", "Alice", score)
			require.ErrorIs(t, err, ErrInvalidScore)
			require.ErrorIs(t, err, apperr.ErrInvalidArgument)
		}

		_, err := a.GetGroupRating(ctx, "s1", 10)
		require.ErrorIs(t, err, ErrRatingNotFound)
	})

	t.Run("Missing identifiers are invalid arguments", func(t *testing.T) {
		a := newTestAggregator(t)

		_, err := a.SubmitRating(ctx, "", 10, "alice", "Alice", 3)
		require.ErrorIs(t, err, ErrMissingSessionId)
		_, err = a.SubmitRating(ctx, "s1", 10, " ", "Alice", 3)
		require.ErrorIs(t, err, ErrMissingUserId)
		_, err = a.SubmitRating(ctx, "s1", 0, "alice", "Alice", 3)
		require.ErrorIs(t, err, ErrInvalidItemId)
	})

	t.Run("Concurrent submissions are all counted", func(t *testing.T) {
		a := newTestAggregator(t)

		const raters = 30
		var wg sync.WaitGroup
		errs := make(chan error, raters)
		for i := 0; i < raters; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := a.SubmitRating(ctx, "s1", 10, fmt.Sprintf("user-%d", i), "", i%5+1)
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		groupRating, err := a.GetGroupRating(ctx, "s1", 10)
		require.NoError(t, err)
		require.Equal(t, raters, groupRating.Count)
		require.Len(t, scoresByUser(groupRating), raters)
		// Scores cycle 1..5 evenly, so the mean is 3.
		require.InDelta(t, 3.0, groupRating.AverageScore, 1e-9)
	})
}

func TestGetGroupRating(t *testing.T) {
	ctx := context.Background()
	a := newTestAggregator(t)

	_, err := a.GetGroupRating(ctx, "s1", 10)
	require.ErrorIs(t, err, ErrRatingNotFound)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = a.SubmitRating(ctx, "s1", 10, "alice", "Alice", 2)
	require.NoError(t, err)

	groupRating, err := a.GetGroupRating(ctx, "s1", 10)
	require.NoError(t, err)
	require.Equal(t, 2.0, groupRating.AverageScore)

	// Ratings are scoped per session and per item.
	_, err = a.GetGroupRating(ctx, "s2", 10)
	require.ErrorIs(t, err, ErrRatingNotFound)
	_, err = a.GetGroupRating(ctx, "s1", 11)
	require.ErrorIs(t, err, ErrRatingNotFound)
}

func TestGetGlobalAverage(t *testing.T) {
	ctx := context.Background()

	t.Run("Unweighted mean across sessions", func(t *testing.T) {
		a := newTestAggregator(t)

		// Session one: a single 5. Session two: three 1s.
		_, err := a.SubmitRating(ctx, "s1", 10, "alice", "Alice", 5)
		require.NoError(t, err)
		for _, user := range []string{"bob", "carol", "dave"} {
			_, err := a.SubmitRating(ctx, "s2", 10, user, "", 1)
			require.NoError(t, err)
		}
		// Another item must not leak into the result.
		_, err = a.SubmitRating(ctx, "s1", 11, "alice", "Alice", 1)
		require.NoError(t, err)

		global, err := a.GetGlobalAverage(ctx, 10)
		require.NoError(t, err)
		require.Equal(t, 10, global.ItemId)
		require.Equal(t, 4, global.Count)
		require.Equal(t, 2, global.Sessions)
		require.InDelta(t, 2.0, global.AverageScore, 1e-9)
	})

	t.Run("Item never rated", func(t *testing.T) {
		a := newTestAggregator(t)

		_, err := a.GetGlobalAverage(ctx, 10)
		require.ErrorIs(t, err, ErrNoRatingsForItem)
		require.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("Invalid item id", func(t *testing.T) {
		a := newTestAggregator(t)

		_, err := a.GetGlobalAverage(ctx, 0)
		require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	})
}
