package ratings

import (
	"fmt"

	"github.com/lealre/ratebeer-backend/internal/apperr"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
)

const (
	MinScore = 1
	MaxScore = 5

	defaultDisplayName = "User"
)

var (
	ErrRatingNotFound   = fmt.Errorf("no ratings submitted for this item in this session: %w", apperr.ErrNotFound)
	ErrNoRatingsForItem = fmt.Errorf("item has not been rated in any session: %w", apperr.ErrNotFound)
	ErrInvalidScore     = fmt.Errorf("score must be an integer between %d and %d: %w", MinScore, MaxScore, apperr.ErrInvalidArgument)
	ErrInvalidItemId    = fmt.Errorf("item id must be positive: %w", apperr.ErrInvalidArgument)
	ErrMissingSessionId = fmt.Errorf("session id is required: %w", apperr.ErrInvalidArgument)
	ErrMissingUserId    = fmt.Errorf("user id is required: %w", apperr.ErrInvalidArgument)
)

func IsValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// recompute derives the average and count from the full entry set.
func recompute(ratingDb *mongodb.GroupRatingDb) {
	ratingDb.Count = len(ratingDb.Entries)
	ratingDb.AverageScore = average(ratingDb.Entries)
}

func average(entries []mongodb.RatingEntryDb) float64 {
	if len(entries) == 0 {
		return 0
	}
	total := 0
	for _, entry := range entries {
		total += entry.Score
	}
	return float64(total) / float64(len(entries))
}
