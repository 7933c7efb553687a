package sessions

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/lealre/ratebeer-backend/internal/apperr"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
	"github.com/lealre/ratebeer-backend/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, opts ...Option) (*Manager, *store.Memory[mongodb.SessionDb]) {
	t.Helper()
	coll := store.NewMemory[mongodb.SessionDb](mongodb.SessionMemoryIndexes...)
	return NewManager(coll, opts...), coll
}

// blindPinLookup hides every session from PIN lookups.
type blindPinLookup struct {
	store.Collection[mongodb.SessionDb]
}

func (blindPinLookup) FindEqual(ctx context.Context, filter map[string]any) ([]mongodb.SessionDb, error) {
	return nil, nil
}

func pinSequence(pins ...string) func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		pin := pins[i%len(pins)]
		i++
		return pin
	}
}

func userIds(session Session) []string {
	ids := make([]string, 0, len(session.Members))
	for _, member := range session.Members {
		ids = append(ids, member.UserId)
	}
	return ids
}

func requireSingleHost(t *testing.T, session Session) {
	t.Helper()
	if !session.Active {
		require.Empty(t, session.Members)
		return
	}
	hosts := 0
	for _, member := range session.Members {
		if member.IsHost {
			hosts++
			require.Equal(t, session.HostId, member.UserId, "host flag and hostId disagree")
		}
	}
	require.Equal(t, 1, hosts, "exactly one member must be host")
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Create a session successfully", func(t *testing.T) {
		m, _ := newTestManager(t)

		session, err := m.CreateSession(ctx, "alice", "Alice")
		require.NoError(t, err)
		require.NotEmpty(t, session.Id)
		require.True(t, IsValidPin(session.Pin))
		require.Equal(t, "alice", session.HostId)
		require.Equal(t, StatusLobby, session.Status)
		require.True(t, session.Active)
		require.Nil(t, session.CurrentItemId)
		require.Len(t, session.Members, 1)
		require.Equal(t, Member{UserId: "alice", DisplayName: "Alice", IsHost: true, JoinedAt: session.Members[0].JoinedAt}, session.Members[0])
		require.False(t, session.CreatedAt.IsZero())
	})

	t.Run("Blank display name falls back to Host", func(t *testing.T) {
		m, _ := newTestManager(t)

		session, err := m.CreateSession(ctx, "alice", "  ")
		require.NoError(t, err)
		require.Equal(t, "Host", session.Members[0].DisplayName)
	})

	t.Run("Missing user id is an invalid argument", func(t *testing.T) {
		m, _ := newTestManager(t)

		_, err := m.CreateSession(ctx, "", "Alice")
		require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	})

	t.Run("PIN already used by an active session is regenerated", func(t *testing.T) {
		m, _ := newTestManager(t, WithPinGenerator(pinSequence("111111", "111111", "222222")))

		first, err := m.CreateSession(ctx, "alice", "Alice")
		require.NoError(t, err)
		require.Equal(t, "111111", first.Pin)

		second, err := m.CreateSession(ctx, "bob", "Bob")
		require.NoError(t, err)
		require.Equal(t, "222222", second.Pin)
	})

	t.Run("PIN claimed between the check and the insert is regenerated", func(t *testing.T) {
		coll := store.NewMemory[mongodb.SessionDb](mongodb.SessionMemoryIndexes...)
		first, err := NewManager(coll).CreateSession(ctx, "alice", "Alice")
		require.NoError(t, err)

		// The lookup misses the session created above, as it would if both
		// creates checked the PIN before either inserted.
		m := NewManager(blindPinLookup{coll}, WithPinGenerator(pinSequence(first.Pin, "222222")))
		second, err := m.CreateSession(ctx, "bob", "Bob")
		require.NoError(t, err)
		require.Equal(t, "222222", second.Pin)

		active, err := coll.FindEqual(ctx, map[string]any{"pin": first.Pin, "active": true})
		require.NoError(t, err)
		require.Len(t, active, 1)
	})

	t.Run("PIN of an inactive session can be reused", func(t *testing.T) {
		m, _ := newTestManager(t, WithPinGenerator(pinSequence("111111")))

		first, err := m.CreateSession(ctx, "alice", "Alice")
		require.NoError(t, err)
		require.NoError(t, m.LeaveSession(ctx, first.Id, "alice"))

		second, err := m.CreateSession(ctx, "bob", "Bob")
		require.NoError(t, err)
		require.Equal(t, "111111", second.Pin)
		require.NotEqual(t, first.Id, second.Id)
	})

	t.Run("Giving up after the configured attempts", func(t *testing.T) {
		m, _ := newTestManager(t, WithPinGenerator(pinSequence("111111")), WithPinAttempts(3))

		_, err := m.CreateSession(ctx, "alice", "Alice")
		require.NoError(t, err)

		_, err = m.CreateSession(ctx, "bob", "Bob")
		require.ErrorIs(t, err, ErrPinsExhausted)
		require.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	})
}

func TestRandomPin(t *testing.T) {
	for i := 0; i < 1000; i++ {
		require.True(t, IsValidPin(RandomPin()))
	}
	require.False(t, IsValidPin("12345"))
	require.False(t, IsValidPin("1234567"))
	require.False(t, IsValidPin("12a456"))
	require.True(t, IsValidPin("000000"))
}

func TestJoinSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Join appends the member in join order", func(t *testing.T) {
		m, _ := newTestManager(t)
		created, err := m.CreateSession(ctx, "alice", "Alice")
		require.NoError(t, err)

		_, err = m.JoinSession(ctx, created.Pin, "bob", "Bob")
		require.NoError(t, err)
		joined, err := m.JoinSession(ctx, created.Pin, "carol", "")
		require.NoError(t, err)

		require.Equal(t, []string{"alice", "bob", "carol"}, userIds(joined))
		require.Equal(t, "User", joined.Members[2].DisplayName)
		require.False(t, joined.Members[1].IsHost)
		requireSingleHost(t, joined)
	})

	t.Run("Joining twice keeps a single membership entry", func(t *testing.T) {
		m, _ := newTestManager(t)
		created, err := m.CreateSession(ctx, "alice", "Alice")
		require.NoError(t, err)

		first, err := m.JoinSession(ctx, created.Pin, "bob", "Bob")
		require.NoError(t, err)
		second, err := m.JoinSession(ctx, created.Pin, "bob", "Bobby")
		require.NoError(t, err)

		require.Equal(t, first.Members, second.Members)
		require.Equal(t, []string{"alice", "bob"}, userIds(second))
	})

	t.Run("Unknown PIN returns not found", func(t *testing.T) {
		m, _ := newTestManager(t)

		_, err := m.JoinSession(ctx, "123456", "bob", "Bob")
		require.ErrorIs(t, err, ErrSessionNotFound)
		require.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("Malformed PIN is an invalid argument", func(t *testing.T) {
		m, _ := newTestManager(t)

		_, err := m.JoinSession(ctx, "12-456", "bob", "Bob")
		require.ErrorIs(t, err, ErrInvalidPin)
		require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	})

	t.Run("Session removed between lookup and transaction returns not found", func(t *testing.T) {
		coll := store.NewMemory[mongodb.SessionDb](mongodb.SessionMemoryIndexes...)
		racing := &deleteBeforeTransact{Collection: coll}
		m := NewManager(racing)

		created, err := m.CreateSession(ctx, "alice", "Alice")
		require.NoError(t, err)
		racing.id = created.Id

		_, err = m.JoinSession(ctx, created.Pin, "bob", "Bob")
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Concurrent joins are all kept", func(t *testing.T) {
		m, _ := newTestManager(t)
		created, err := m.CreateSession(ctx, "host", "Host")
		require.NoError(t, err)

		const joiners = 25
		var wg sync.WaitGroup
		errs := make(chan error, joiners)
		for i := 0; i < joiners; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := m.JoinSession(ctx, created.Pin, fmt.Sprintf("user-%d", i), fmt.Sprintf("User %d", i))
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		session, err := m.GetSession(ctx, created.Id)
		require.NoError(t, err)
		require.Len(t, session.Members, joiners+1)

		seen := make(map[string]bool)
		for _, id := range userIds(session) {
			require.False(t, seen[id], "duplicate member %s", id)
			seen[id] = true
		}
		for i := 0; i < joiners; i++ {
			require.True(t, seen[fmt.Sprintf("user-%d", i)])
		}
		requireSingleHost(t, session)
	})
}

func TestStateMachine(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Manager, Session) {
		m, _ := newTestManager(t)
		session, err := m.CreateSession(ctx, "alice", "Alice")
		require.NoError(t, err)
		_, err = m.JoinSession(ctx, session.Pin, "bob", "Bob")
		require.NoError(t, err)
		return m, session
	}

	t.Run("Full cycle LOBBY -> TASTING -> RESULTS -> LOBBY", func(t *testing.T) {
		m, session := setup(t)

		tasting, err := m.SelectItem(ctx, session.Id, "alice", 42, "Punk IPA")
		require.NoError(t, err)
		require.Equal(t, StatusTasting, tasting.Status)
		require.Equal(t, 42, *tasting.CurrentItemId)
		require.Equal(t, "Punk IPA", *tasting.CurrentItemName)

		results, err := m.AdvanceToResults(ctx, session.Id, "alice")
		require.NoError(t, err)
		require.Equal(t, StatusResults, results.Status)
		require.Equal(t, 42, *results.CurrentItemId)

		lobby, err := m.ReturnToSelection(ctx, session.Id, "alice")
		require.NoError(t, err)
		require.Equal(t, StatusLobby, lobby.Status)
		require.Nil(t, lobby.CurrentItemId)
		require.Nil(t, lobby.CurrentItemName)

		next, err := m.SelectItem(ctx, session.Id, "alice", 7, "Dead Pony Club")
		require.NoError(t, err)
		require.Equal(t, 7, *next.CurrentItemId)
	})

	t.Run("SelectItem outside LOBBY is an invalid state", func(t *testing.T) {
		m, session := setup(t)

		_, err := m.SelectItem(ctx, session.Id, "alice", 1, "Buzz")
		require.NoError(t, err)
		_, err = m.SelectItem(ctx, session.Id, "alice", 2, "Trashy Blonde")
		require.ErrorIs(t, err, ErrInvalidTransition)
		require.ErrorIs(t, err, apperr.ErrInvalidState)

		_, err = m.AdvanceToResults(ctx, session.Id, "alice")
		require.NoError(t, err)
		_, err = m.SelectItem(ctx, session.Id, "alice", 2, "Trashy Blonde")
		require.ErrorIs(t, err, apperr.ErrInvalidState)
	})

	t.Run("AdvanceToResults and ReturnToSelection from the wrong status", func(t *testing.T) {
		m, session := setup(t)

		_, err := m.AdvanceToResults(ctx, session.Id, "alice")
		require.ErrorIs(t, err, apperr.ErrInvalidState)
		_, err = m.ReturnToSelection(ctx, session.Id, "alice")
		require.ErrorIs(t, err, apperr.ErrInvalidState)
	})

	t.Run("Non host gets forbidden", func(t *testing.T) {
		m, session := setup(t)

		_, err := m.SelectItem(ctx, session.Id, "bob", 1, "Buzz")
		require.ErrorIs(t, err, ErrNotHost)
		require.ErrorIs(t, err, apperr.ErrForbidden)

		_, err = m.SelectItem(ctx, session.Id, "alice", 1, "Buzz")
		require.NoError(t, err)
		_, err = m.AdvanceToResults(ctx, session.Id, "bob")
		require.ErrorIs(t, err, apperr.ErrForbidden)

		current, err := m.GetSession(ctx, session.Id)
		require.NoError(t, err)
		require.Equal(t, StatusTasting, current.Status)
	})

	t.Run("Invalid item and unknown session", func(t *testing.T) {
		m, session := setup(t)

		_, err := m.SelectItem(ctx, session.Id, "alice", 0, "Buzz")
		require.ErrorIs(t, err, apperr.ErrInvalidArgument)
		_, err = m.SelectItem(ctx, session.Id, "alice", 1, " ")
		require.ErrorIs(t, err, apperr.ErrInvalidArgument)
		_, err = m.SelectItem(ctx, "missing", "alice", 1, "Buzz")
		require.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestLeaveSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Host leaves and the earliest joined member takes over", func(t *testing.T) {
		m, _ := newTestManager(t)
		session, err := m.CreateSession(ctx, "A", "A")
		require.NoError(t, err)
		_, err = m.JoinSession(ctx, session.Pin, "B", "B")
		require.NoError(t, err)
		_, err = m.JoinSession(ctx, session.Pin, "C", "C")
		require.NoError(t, err)

		require.NoError(t, m.LeaveSession(ctx, session.Id, "A"))

		current, err := m.GetSession(ctx, session.Id)
		require.NoError(t, err)
		require.True(t, current.Active)
		require.Equal(t, "B", current.HostId)
		require.Equal(t, []string{"B", "C"}, userIds(current))
		require.True(t, current.Members[0].IsHost)
		require.False(t, current.Members[1].IsHost)

		// The new host can drive the session.
		_, err = m.SelectItem(ctx, session.Id, "B", 1, "Buzz")
		require.NoError(t, err)
	})

	t.Run("Regular member leaves", func(t *testing.T) {
		m, _ := newTestManager(t)
		session, err := m.CreateSession(ctx, "A", "A")
		require.NoError(t, err)
		_, err = m.JoinSession(ctx, session.Pin, "B", "B")
		require.NoError(t, err)

		require.NoError(t, m.LeaveSession(ctx, session.Id, "B"))

		current, err := m.GetSession(ctx, session.Id)
		require.NoError(t, err)
		require.Equal(t, "A", current.HostId)
		require.Equal(t, []string{"A"}, userIds(current))
	})

	t.Run("Last member leaving tears the session down", func(t *testing.T) {
		m, _ := newTestManager(t)
		session, err := m.CreateSession(ctx, "A", "A")
		require.NoError(t, err)

		require.NoError(t, m.LeaveSession(ctx, session.Id, "A"))

		current, err := m.GetSession(ctx, session.Id)
		require.NoError(t, err)
		require.False(t, current.Active)
		require.Empty(t, current.Members)

		_, err = m.JoinSession(ctx, session.Pin, "B", "B")
		require.ErrorIs(t, err, ErrSessionNotFound)

		_, err = m.SelectItem(ctx, session.Id, "A", 1, "Buzz")
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Leaving is idempotent", func(t *testing.T) {
		m, _ := newTestManager(t)
		session, err := m.CreateSession(ctx, "A", "A")
		require.NoError(t, err)
		_, err = m.JoinSession(ctx, session.Pin, "B", "B")
		require.NoError(t, err)

		require.NoError(t, m.LeaveSession(ctx, session.Id, "B"))
		require.NoError(t, m.LeaveSession(ctx, session.Id, "B"))
		require.NoError(t, m.LeaveSession(ctx, session.Id, "stranger"))

		current, err := m.GetSession(ctx, session.Id)
		require.NoError(t, err)
		require.Equal(t, []string{"A"}, userIds(current))
	})

	t.Run("Unknown session returns not found", func(t *testing.T) {
		m, _ := newTestManager(t)

		err := m.LeaveSession(ctx, "missing", "A")
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Exactly one host after any join/leave sequence", func(t *testing.T) {
		m, _ := newTestManager(t)
		rng := rand.New(rand.NewSource(7))

		session, err := m.CreateSession(ctx, "u0", "u0")
		require.NoError(t, err)
		users := []string{"u0", "u1", "u2", "u3", "u4", "u5"}

		for step := 0; step < 300; step++ {
			user := users[rng.Intn(len(users))]
			if rng.Intn(2) == 0 {
				_, err = m.JoinSession(ctx, session.Pin, user, user)
				if err != nil {
					// Session drained to zero members; it can no longer be joined.
					require.ErrorIs(t, err, ErrSessionNotFound)
					break
				}
			} else {
				require.NoError(t, m.LeaveSession(ctx, session.Id, user))
			}

			current, err := m.GetSession(ctx, session.Id)
			require.NoError(t, err)
			requireSingleHost(t, current)
			if !current.Active {
				break
			}
		}
	})

	t.Run("Concurrent leaves of everybody deactivate the session", func(t *testing.T) {
		m, _ := newTestManager(t)
		session, err := m.CreateSession(ctx, "user-0", "Host")
		require.NoError(t, err)
		for i := 1; i < 10; i++ {
			_, err := m.JoinSession(ctx, session.Pin, fmt.Sprintf("user-%d", i), "")
			require.NoError(t, err)
		}

		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- m.LeaveSession(ctx, session.Id, fmt.Sprintf("user-%d", i))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		current, err := m.GetSession(ctx, session.Id)
		require.NoError(t, err)
		require.False(t, current.Active)
		require.Empty(t, current.Members)
	})
}

// deleteBeforeTransact removes the document right before the transaction
// runs, simulating a session that disappears after the PIN lookup.
type deleteBeforeTransact struct {
	store.Collection[mongodb.SessionDb]
	id string
}

func (d *deleteBeforeTransact) Transact(ctx context.Context, id string, fn store.TransactFunc[mongodb.SessionDb]) (*mongodb.SessionDb, error) {
	if id == d.id {
		_ = d.Collection.Delete(ctx, id)
	}
	return d.Collection.Transact(ctx, id, fn)
}
