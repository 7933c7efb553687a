package ratings

import "github.com/lealre/ratebeer-backend/internal/mongodb"

func MapDbGroupRatingToApiGroupRating(ratingDb mongodb.GroupRatingDb) GroupRating {
	groupRating := GroupRating{
		SessionId:    ratingDb.SessionId,
		ItemId:       ratingDb.ItemId,
		Entries:      make([]RatingEntry, 0, len(ratingDb.Entries)),
		AverageScore: ratingDb.AverageScore,
		Count:        ratingDb.Count,
		CreatedAt:    ratingDb.CreatedAt,
		UpdatedAt:    ratingDb.UpdatedAt,
	}

	for _, entry := range ratingDb.Entries {
		groupRating.Entries = append(groupRating.Entries, RatingEntry{
			UserId:      entry.UserId,
			DisplayName: entry.DisplayName,
			Score:       entry.Score,
			SubmittedAt: entry.SubmittedAt,
		})
	}

	return groupRating
}
