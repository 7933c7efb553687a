package sessions

import "github.com/lealre/ratebeer-backend/internal/mongodb"

func MapDbSessionToApiSession(sessionDb mongodb.SessionDb) Session {
	session := Session{
		Id:              sessionDb.Id,
		Pin:             sessionDb.Pin,
		HostId:          sessionDb.HostId,
		Status:          Status(sessionDb.Status),
		CurrentItemId:   sessionDb.CurrentItemId,
		CurrentItemName: sessionDb.CurrentItemName,
		Members:         make([]Member, 0, len(sessionDb.Members)),
		Active:          sessionDb.Active,
		CreatedAt:       sessionDb.CreatedAt,
		UpdatedAt:       sessionDb.UpdatedAt,
	}

	for _, member := range sessionDb.Members {
		session.Members = append(session.Members, Member{
			UserId:      member.UserId,
			DisplayName: member.DisplayName,
			IsHost:      member.IsHost,
			JoinedAt:    member.JoinedAt,
		})
	}

	return session
}
