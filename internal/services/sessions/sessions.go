package sessions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lealre/ratebeer-backend/internal/apperr"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
	"github.com/lealre/ratebeer-backend/internal/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/*
Manager owns the lifecycle of tasting sessions.

Every mutation is a single store transaction on one session document: the
latest version is read, preconditions are checked against that read and the
new version is derived from it. Concurrent callers never overwrite each
other's changes; the store retries the losers on a fresh read.

State machine: LOBBY -> TASTING -> RESULTS -> LOBBY, host only. A session
ends (active=false) when its last member leaves.
*/
type Manager struct {
	sessions    store.Collection[mongodb.SessionDb]
	pinAttempts int
	newPin      func() string
	now         func() time.Time
}

type Option func(*Manager)

// WithPinAttempts bounds how many PINs are tried before giving up.
func WithPinAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.pinAttempts = n
		}
	}
}

func WithPinGenerator(fn func() string) Option {
	return func(m *Manager) { m.newPin = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(m *Manager) { m.now = fn }
}

func NewManager(sessions store.Collection[mongodb.SessionDb], opts ...Option) *Manager {
	m := &Manager{
		sessions:    sessions,
		pinAttempts: defaultPinAttempts,
		newPin:      RandomPin,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateSession opens a new session in LOBBY with the caller as its only
// member and host. The PIN is unique among active sessions.
func (m *Manager) CreateSession(ctx context.Context, hostUserId, hostDisplayName string) (Session, error) {
	if strings.TrimSpace(hostUserId) == "" {
		return Session{}, ErrMissingUserId
	}
	hostName := displayNameOr(hostDisplayName, defaultHostName)

	for attempt := 0; attempt < m.pinAttempts; attempt++ {
		pin := m.newPin()

		active, err := m.activeByPin(ctx, pin)
		if err != nil {
			return Session{}, err
		}
		if len(active) > 0 {
			continue
		}

		now := m.now()
		sessionDb := mongodb.SessionDb{
			Id:     primitive.NewObjectID().Hex(),
			Pin:    pin,
			HostId: hostUserId,
			Status: string(StatusLobby),
			Members: []mongodb.MemberDb{{
				UserId:      hostUserId,
				DisplayName: hostName,
				IsHost:      true,
				JoinedAt:    now,
			}},
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}

		err = m.sessions.Insert(ctx, sessionDb.Id, sessionDb)
		if errors.Is(err, store.ErrDuplicate) {
			// Another session claimed the PIN between the check and the insert.
			continue
		}
		if err != nil {
			return Session{}, apperr.Unavailable(err)
		}

		return MapDbSessionToApiSession(sessionDb), nil
	}

	return Session{}, ErrPinsExhausted
}

// JoinSession adds the user to the active session with the given PIN.
// Joining a session the user already belongs to returns it unchanged.
func (m *Manager) JoinSession(ctx context.Context, pin, userId, displayName string) (Session, error) {
	if !IsValidPin(pin) {
		return Session{}, ErrInvalidPin
	}
	if strings.TrimSpace(userId) == "" {
		return Session{}, ErrMissingUserId
	}
	name := displayNameOr(displayName, defaultJoinerName)

	active, err := m.activeByPin(ctx, pin)
	if err != nil {
		return Session{}, err
	}
	if len(active) == 0 {
		return Session{}, ErrSessionNotFound
	}
	// Should the unique index ever be missing, prefer the newest session.
	slices.SortFunc(active, func(a, b mongodb.SessionDb) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return m.mutate(ctx, active[0].Id, func(cur *mongodb.SessionDb) (*mongodb.SessionDb, error) {
		if memberIndex(cur.Members, userId) >= 0 {
			return nil, nil
		}

		next := *cur
		next.Members = append(slices.Clone(cur.Members), mongodb.MemberDb{
			UserId:      userId,
			DisplayName: name,
			IsHost:      len(cur.Members) == 0,
			JoinedAt:    m.now(),
		})
		if len(cur.Members) == 0 {
			next.HostId = userId
		}
		return &next, nil
	})
}

// SelectItem opens voting on an item. Host only, from LOBBY.
func (m *Manager) SelectItem(ctx context.Context, sessionId, requesterId string, itemId int, itemName string) (Session, error) {
	itemName = strings.TrimSpace(itemName)
	if itemId < 1 || itemName == "" {
		return Session{}, ErrInvalidItem
	}

	return m.hostTransition(ctx, sessionId, requesterId, StatusLobby, func(next *mongodb.SessionDb) {
		next.Status = string(StatusTasting)
		next.CurrentItemId = &itemId
		next.CurrentItemName = &itemName
	})
}

// AdvanceToResults closes voting. Host only, from TASTING.
func (m *Manager) AdvanceToResults(ctx context.Context, sessionId, requesterId string) (Session, error) {
	return m.hostTransition(ctx, sessionId, requesterId, StatusTasting, func(next *mongodb.SessionDb) {
		next.Status = string(StatusResults)
	})
}

// ReturnToSelection goes back to LOBBY so the next item can be chosen.
// Host only, from RESULTS.
func (m *Manager) ReturnToSelection(ctx context.Context, sessionId, requesterId string) (Session, error) {
	return m.hostTransition(ctx, sessionId, requesterId, StatusResults, func(next *mongodb.SessionDb) {
		next.Status = string(StatusLobby)
		next.CurrentItemId = nil
		next.CurrentItemName = nil
	})
}

/*
LeaveSession removes the user from the session.

  - a regular member is simply removed
  - when the host leaves, the earliest joined remaining member becomes host
  - when the last member leaves, the session is marked inactive

Leaving a session the user is not part of is a no-op.
*/
func (m *Manager) LeaveSession(ctx context.Context, sessionId, userId string) error {
	if strings.TrimSpace(sessionId) == "" {
		return ErrMissingSessionId
	}
	if strings.TrimSpace(userId) == "" {
		return ErrMissingUserId
	}

	_, err := m.sessions.Transact(ctx, sessionId, func(cur *mongodb.SessionDb) (*mongodb.SessionDb, error) {
		if cur == nil {
			return nil, ErrSessionNotFound
		}
		idx := memberIndex(cur.Members, userId)
		if idx < 0 {
			return nil, nil
		}

		next := *cur
		next.Members = slices.Delete(slices.Clone(cur.Members), idx, idx+1)
		next.UpdatedAt = m.now()

		switch {
		case len(next.Members) == 0:
			next.Active = false
			next.HostId = ""
		case cur.HostId == userId:
			next.Members[0].IsHost = true
			next.HostId = next.Members[0].UserId
		}

		return &next, nil
	})

	return translateStoreErr(err)
}

func (m *Manager) GetSession(ctx context.Context, sessionId string) (Session, error) {
	if strings.TrimSpace(sessionId) == "" {
		return Session{}, ErrMissingSessionId
	}

	snap, err := m.sessions.Get(ctx, sessionId)
	if err != nil {
		return Session{}, translateStoreErr(err)
	}
	return MapDbSessionToApiSession(*snap.Doc), nil
}

func (m *Manager) hostTransition(
	ctx context.Context,
	sessionId, requesterId string,
	from Status,
	apply func(next *mongodb.SessionDb),
) (Session, error) {
	if strings.TrimSpace(requesterId) == "" {
		return Session{}, ErrMissingUserId
	}

	return m.mutate(ctx, sessionId, func(cur *mongodb.SessionDb) (*mongodb.SessionDb, error) {
		if cur.HostId != requesterId {
			return nil, ErrNotHost
		}
		if Status(cur.Status) != from {
			return nil, fmt.Errorf("%w: session is %s, expected %s", ErrInvalidTransition, cur.Status, from)
		}

		next := *cur
		apply(&next)
		return &next, nil
	})
}

// mutate runs fn against the latest version of an active session. fn follows
// store.TransactFunc rules but never sees a missing or inactive session.
func (m *Manager) mutate(ctx context.Context, sessionId string, fn store.TransactFunc[mongodb.SessionDb]) (Session, error) {
	if strings.TrimSpace(sessionId) == "" {
		return Session{}, ErrMissingSessionId
	}

	sessionDb, err := m.sessions.Transact(ctx, sessionId, func(cur *mongodb.SessionDb) (*mongodb.SessionDb, error) {
		if cur == nil || !cur.Active {
			return nil, ErrSessionNotFound
		}
		next, err := fn(cur)
		if next != nil {
			next.UpdatedAt = m.now()
		}
		return next, err
	})
	if err != nil {
		return Session{}, translateStoreErr(err)
	}

	return MapDbSessionToApiSession(*sessionDb), nil
}

func (m *Manager) activeByPin(ctx context.Context, pin string) ([]mongodb.SessionDb, error) {
	active, err := m.sessions.FindEqual(ctx, map[string]any{"pin": pin, "active": true})
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return active, nil
}

func translateStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionNotFound
	}
	return apperr.Unavailable(err)
}
