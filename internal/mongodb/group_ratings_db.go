package mongodb

import (
	"strconv"
	"time"
)

// ----- Types for the database -----

type GroupRatingDb struct {
	Id           string          `json:"id" bson:"_id"`
	SessionId    string          `json:"sessionId" bson:"sessionId"`
	ItemId       int             `json:"itemId" bson:"itemId"`
	Entries      []RatingEntryDb `json:"entries" bson:"entries"`
	AverageScore float64         `json:"averageScore" bson:"averageScore"`
	Count        int             `json:"count" bson:"count"`
	CreatedAt    time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt" bson:"updatedAt"`
}

type RatingEntryDb struct {
	UserId      string    `json:"userId" bson:"userId"`
	DisplayName string    `json:"displayName" bson:"displayName"`
	Score       int       `json:"score" bson:"score"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submittedAt"`
}

// GroupRatingId is the document id of the rating aggregate of one item in one
// session.
func GroupRatingId(sessionId string, itemId int) string {
	return sessionId + ":" + strconv.Itoa(itemId)
}
