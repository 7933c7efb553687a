package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lealre/ratebeer-backend/internal/apperr"
	"github.com/lealre/ratebeer-backend/internal/auth"
	"github.com/lealre/ratebeer-backend/internal/logx"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
	"github.com/lealre/ratebeer-backend/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service manages accounts and issues the access tokens the identity
// provider validates.
type Service struct {
	users    store.Collection[mongodb.UserDb]
	secret   string
	tokenTTL time.Duration
	now      func() time.Time
}

func NewService(users store.Collection[mongodb.UserDb], secret string, tokenTTL time.Duration) *Service {
	return &Service{users: users, secret: secret, tokenTTL: tokenTTL, now: time.Now}
}

// AddUser registers a new account. Usernames are stored lowercased and are
// unique.
func (s *Service) AddUser(ctx context.Context, req NewUserRequest) (User, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	name := strings.TrimSpace(req.Name)
	switch {
	case !IsValidUsername(username):
		return User{}, ErrInvalidUsername
	case name == "":
		return User{}, ErrMissingName
	case len(req.Password) < minPasswordLength:
		return User{}, ErrPasswordTooShort
	}

	existing, err := s.users.FindEqual(ctx, map[string]any{"username": username})
	if err != nil {
		return User{}, apperr.Unavailable(err)
	}
	if len(existing) > 0 {
		return User{}, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return User{}, err
	}

	now := s.now()
	userDb := mongodb.UserDb{
		Id:           primitive.NewObjectID().Hex(),
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(ctx, userDb.Id, userDb); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return User{}, ErrUsernameTaken
		}
		return User{}, apperr.Unavailable(err)
	}

	return MapDbUserToApiUser(userDb), nil
}

// Login checks the credentials and returns a signed access token. Unknown
// users, inactive users and wrong passwords all fail the same way.
func (s *Service) Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
	logger := logx.FromContext(ctx)

	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || req.Password == "" {
		return auth.LoginResponse{}, ErrMissingCredentials
	}

	found, err := s.users.FindEqual(ctx, map[string]any{"username": username})
	if err != nil {
		return auth.LoginResponse{}, apperr.Unavailable(err)
	}
	if len(found) == 0 || !found[0].IsActive {
		return auth.LoginResponse{}, auth.ErrInvalidCredentials
	}
	userDb := found[0]

	if err := auth.CheckPasswordHash(userDb.PasswordHash, req.Password); err != nil {
		return auth.LoginResponse{}, err
	}

	now := s.now()
	updated, err := s.users.Transact(ctx, userDb.Id, func(cur *mongodb.UserDb) (*mongodb.UserDb, error) {
		if cur == nil {
			return nil, ErrUserNotFound
		}
		next := *cur
		next.LastLoginAt = &now
		return &next, nil
	})
	if err != nil {
		// The login itself still succeeds.
		logger.Printf("ERROR: recording last login for %s: %v", userDb.Id, err)
	} else {
		userDb = *updated
	}

	token, err := auth.MakeJWT(userDb.Id, s.secret, s.tokenTTL)
	if err != nil {
		return auth.LoginResponse{}, err
	}

	return MapDbUserToApiLoginResponse(userDb, token), nil
}

func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	userDb, err := s.getUserDb(ctx, id)
	if err != nil {
		return User{}, err
	}
	return MapDbUserToApiUser(userDb), nil
}

// Authenticate resolves a bearer token to the identity of an active user.
func (s *Service) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	userId, err := auth.ValidateJWT(token, s.secret)
	if err != nil {
		return auth.Identity{}, err
	}

	userDb, err := s.getUserDb(ctx, userId)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return auth.Identity{}, auth.ErrInvalidToken
		}
		return auth.Identity{}, err
	}
	if !userDb.IsActive {
		return auth.Identity{}, auth.ErrInvalidToken
	}

	return MapDbUserToIdentity(userDb), nil
}

func (s *Service) getUserDb(ctx context.Context, id string) (mongodb.UserDb, error) {
	snap, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mongodb.UserDb{}, ErrUserNotFound
		}
		return mongodb.UserDb{}, apperr.Unavailable(err)
	}
	return *snap.Doc, nil
}
