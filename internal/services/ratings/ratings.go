package ratings

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/lealre/ratebeer-backend/internal/apperr"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
	"github.com/lealre/ratebeer-backend/internal/store"
)

// Aggregator keeps one rating document per (session, item) holding at most
// one entry per user. The average is recomputed from all entries on every
// write.
type Aggregator struct {
	ratings store.Collection[mongodb.GroupRatingDb]
	now     func() time.Time
}

func NewAggregator(ratings store.Collection[mongodb.GroupRatingDb]) *Aggregator {
	return &Aggregator{ratings: ratings, now: time.Now}
}

// SubmitRating records the user's score for an item, replacing any score the
// user gave before. The item does not have to be the session's current item.
func (a *Aggregator) SubmitRating(ctx context.Context, sessionId string, itemId int, userId, displayName string, score int) (GroupRating, error) {
	switch {
	case strings.TrimSpace(sessionId) == "":
		return GroupRating{}, ErrMissingSessionId
	case strings.TrimSpace(userId) == "":
		return GroupRating{}, ErrMissingUserId
	case itemId < 1:
		return GroupRating{}, ErrInvalidItemId
	case !IsValidScore(score):
		return GroupRating{}, ErrInvalidScore
	}
	if name := strings.TrimSpace(displayName); name != "" {
		displayName = name
	} else {
		displayName = defaultDisplayName
	}

	id := mongodb.GroupRatingId(sessionId, itemId)
	ratingDb, err := a.ratings.Transact(ctx, id, func(cur *mongodb.GroupRatingDb) (*mongodb.GroupRatingDb, error) {
		now := a.now()
		entry := mongodb.RatingEntryDb{
			UserId:      userId,
			DisplayName: displayName,
			Score:       score,
			SubmittedAt: now,
		}

		var next mongodb.GroupRatingDb
		if cur == nil {
			next = mongodb.GroupRatingDb{
				Id:        id,
				SessionId: sessionId,
				ItemId:    itemId,
				Entries:   []mongodb.RatingEntryDb{entry},
				CreatedAt: now,
			}
		} else {
			next = *cur
			next.Entries = slices.Clone(cur.Entries)
			idx := slices.IndexFunc(next.Entries, func(e mongodb.RatingEntryDb) bool {
				return e.UserId == userId
			})
			if idx >= 0 {
				next.Entries[idx] = entry
			} else {
				next.Entries = append(next.Entries, entry)
			}
		}

		next.UpdatedAt = now
		recompute(&next)
		return &next, nil
	})
	if err != nil {
		return GroupRating{}, apperr.Unavailable(err)
	}

	return MapDbGroupRatingToApiGroupRating(*ratingDb), nil
}

func (a *Aggregator) GetGroupRating(ctx context.Context, sessionId string, itemId int) (GroupRating, error) {
	if strings.TrimSpace(sessionId) == "" {
		return GroupRating{}, ErrMissingSessionId
	}
	if itemId < 1 {
		return GroupRating{}, ErrInvalidItemId
	}

	snap, err := a.ratings.Get(ctx, mongodb.GroupRatingId(sessionId, itemId))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return GroupRating{}, ErrRatingNotFound
		}
		return GroupRating{}, apperr.Unavailable(err)
	}

	return MapDbGroupRatingToApiGroupRating(*snap.Doc), nil
}

// GetGlobalAverage is the plain mean of every individual score given to the
// item in any session, so each rater weighs the same whatever the size of
// their group.
func (a *Aggregator) GetGlobalAverage(ctx context.Context, itemId int) (GlobalAverage, error) {
	if itemId < 1 {
		return GlobalAverage{}, ErrInvalidItemId
	}

	groupRatings, err := a.ratings.FindEqual(ctx, map[string]any{"itemId": itemId})
	if err != nil {
		return GlobalAverage{}, apperr.Unavailable(err)
	}

	var all []mongodb.RatingEntryDb
	sessions := 0
	for _, groupRating := range groupRatings {
		if len(groupRating.Entries) == 0 {
			continue
		}
		sessions++
		all = append(all, groupRating.Entries...)
	}
	if len(all) == 0 {
		return GlobalAverage{}, ErrNoRatingsForItem
	}

	return GlobalAverage{
		ItemId:       itemId,
		AverageScore: average(all),
		Count:        len(all),
		Sessions:     sessions,
	}, nil
}
