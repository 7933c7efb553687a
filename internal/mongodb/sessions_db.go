package mongodb

import "time"

// ----- Types for the database -----

type SessionDb struct {
	Id              string     `json:"id" bson:"_id"`
	Pin             string     `json:"pin" bson:"pin"`
	HostId          string     `json:"hostId" bson:"hostId"`
	Status          string     `json:"status" bson:"status"`
	CurrentItemId   *int       `json:"currentItemId,omitempty" bson:"currentItemId,omitempty"`
	CurrentItemName *string    `json:"currentItemName,omitempty" bson:"currentItemName,omitempty"`
	Members         []MemberDb `json:"members" bson:"members"`
	Active          bool       `json:"active" bson:"active"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updatedAt"`
}

type MemberDb struct {
	UserId      string    `json:"userId" bson:"userId"`
	DisplayName string    `json:"displayName" bson:"displayName"`
	IsHost      bool      `json:"isHost" bson:"isHost"`
	JoinedAt    time.Time `json:"joinedAt" bson:"joinedAt"`
}
