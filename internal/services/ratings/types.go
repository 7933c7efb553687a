package ratings

import "time"

type GroupRating struct {
	SessionId    string        `json:"sessionId"`
	ItemId       int           `json:"itemId"`
	Entries      []RatingEntry `json:"entries"`
	AverageScore float64       `json:"averageScore"`
	Count        int           `json:"count"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

type RatingEntry struct {
	UserId      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type GlobalAverage struct {
	ItemId       int     `json:"itemId"`
	AverageScore float64 `json:"averageScore"`
	Count        int     `json:"count"`
	Sessions     int     `json:"sessions"`
}

type NewRating struct {
	ItemId int `json:"itemId"`
	Score  int `json:"score"`
}
