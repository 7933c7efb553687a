package users

import (
	"github.com/lealre/ratebeer-backend/internal/auth"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
)

func MapDbUserToApiUser(userDb mongodb.UserDb) User {
	return User{
		Id:          userDb.Id,
		Username:    userDb.Username,
		Name:        userDb.Name,
		IsActive:    userDb.IsActive,
		LastLoginAt: userDb.LastLoginAt,
		CreatedAt:   userDb.CreatedAt,
		UpdatedAt:   userDb.UpdatedAt,
	}
}

func MapDbUserToApiLoginResponse(userDb mongodb.UserDb, token string) auth.LoginResponse {
	return auth.LoginResponse{
		Id:          userDb.Id,
		Username:    userDb.Username,
		Name:        userDb.Name,
		LastLoginAt: userDb.LastLoginAt,
		AccessToken: token,
	}
}

func MapDbUserToIdentity(userDb mongodb.UserDb) auth.Identity {
	return auth.Identity{Id: userDb.Id, DisplayName: userDb.Name}
}
