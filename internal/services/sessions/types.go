package sessions

import "time"

type Status string

const (
	StatusLobby   Status = "LOBBY"
	StatusTasting Status = "TASTING"
	StatusResults Status = "RESULTS"
)

type Session struct {
	Id              string    `json:"id"`
	Pin             string    `json:"pin"`
	HostId          string    `json:"hostId"`
	Status          Status    `json:"status"`
	CurrentItemId   *int      `json:"currentItemId,omitempty"`
	CurrentItemName *string   `json:"currentItemName,omitempty"`
	Members         []Member  `json:"members"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Member struct {
	UserId      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	IsHost      bool      `json:"isHost"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type CreateSessionRequest struct {
	DisplayName string `json:"displayName"`
}

type JoinSessionRequest struct {
	Pin         string `json:"pin"`
	DisplayName string `json:"displayName"`
}

type SelectItemRequest struct {
	ItemId   int    `json:"itemId"`
	ItemName string `json:"itemName"`
}
