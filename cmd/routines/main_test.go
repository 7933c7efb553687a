package main

import (
	"context"
	"sync"
	"testing"

	"github.com/lealre/ratebeer-backend/internal/catalog"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
	"github.com/lealre/ratebeer-backend/internal/store"
	"github.com/stretchr/testify/require"
)

type recordingLookup struct {
	mu   sync.Mutex
	seen []int
}

func (l *recordingLookup) GetItem(ctx context.Context, itemId int) (catalog.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, itemId)
	if itemId == 3 {
		return catalog.Item{}, catalog.ErrItemNotFound
	}
	return catalog.Item{Id: itemId}, nil
}

func (l *recordingLookup) SearchItems(ctx context.Context, name string, page, perPage int) (catalog.SearchResponse, error) {
	return catalog.SearchResponse{}, nil
}

func TestWarmUp(t *testing.T) {
	ctx := context.Background()
	ratingsColl := store.NewMemory[mongodb.GroupRatingDb]()
	for _, doc := range []mongodb.GroupRatingDb{
		{Id: mongodb.GroupRatingId("s1", 1), SessionId: "s1", ItemId: 1},
		{Id: mongodb.GroupRatingId("s2", 1), SessionId: "s2", ItemId: 1},
		{Id: mongodb.GroupRatingId("s1", 2), SessionId: "s1", ItemId: 2},
		{Id: mongodb.GroupRatingId("s1", 3), SessionId: "s1", ItemId: 3},
	} {
		require.NoError(t, ratingsColl.Insert(ctx, doc.Id, doc))
	}

	itemIds, err := ratedItemIds(ctx, ratingsColl)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, itemIds)

	lookup := &recordingLookup{}
	cached := warmUp(ctx, lookup, itemIds)
	require.Equal(t, int64(2), cached)
	require.ElementsMatch(t, []int{1, 2, 3}, lookup.seen)
}
