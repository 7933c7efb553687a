package observer

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/lealre/ratebeer-backend/internal/apperr"
	"github.com/lealre/ratebeer-backend/internal/logx"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
	"github.com/lealre/ratebeer-backend/internal/services/ratings"
	"github.com/lealre/ratebeer-backend/internal/services/sessions"
	"github.com/lealre/ratebeer-backend/internal/store"
)

// Event is one value pushed by a Stream. A session stream ends with a Gone
// event once the session is removed or deactivated. On a group rating stream
// a nil Value means no rating has been submitted yet.
type Event[T any] struct {
	Value *T   `json:"value"`
	Gone  bool `json:"gone,omitempty"`
}

/*
Stream delivers the current value of a document followed by one event per
committed change, in commit order.

Events is closed when the stream ends, either because the document is gone,
the context was cancelled, Close was called or the store subscription
failed. In the last case Err reports an apperr.ErrStoreUnavailable error and
the caller is expected to subscribe again.
*/
type Stream[T any] struct {
	events  chan Event[T]
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	mu  sync.Mutex
	err error
}

func (s *Stream[T]) Events() <-chan Event[T] { return s.events }

func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the stream and releases the store subscription before
// returning. It can be called any number of times, also after the stream
// ended on its own.
func (s *Stream[T]) Close() {
	s.once.Do(func() { close(s.done) })
	<-s.stopped
}

type Observer struct {
	sessions store.Collection[mongodb.SessionDb]
	ratings  store.Collection[mongodb.GroupRatingDb]
}

func NewObserver(
	sessionsColl store.Collection[mongodb.SessionDb],
	ratingsColl store.Collection[mongodb.GroupRatingDb],
) *Observer {
	return &Observer{sessions: sessionsColl, ratings: ratingsColl}
}

// ObserveSession streams the session. A session that does not exist or is
// no longer active yields a single Gone event.
func (o *Observer) ObserveSession(ctx context.Context, sessionId string) (*Stream[sessions.Session], error) {
	if strings.TrimSpace(sessionId) == "" {
		return nil, sessions.ErrMissingSessionId
	}

	return observe(ctx, o.sessions, sessionId, func(sessionDb *mongodb.SessionDb) Event[sessions.Session] {
		if sessionDb == nil || !sessionDb.Active {
			return Event[sessions.Session]{Gone: true}
		}
		session := sessions.MapDbSessionToApiSession(*sessionDb)
		return Event[sessions.Session]{Value: &session}
	})
}

// ObserveGroupRating streams the aggregated rating of one item in one
// session. The stream starts with a nil Value when nobody rated the item
// yet and keeps running until it is closed.
func (o *Observer) ObserveGroupRating(ctx context.Context, sessionId string, itemId int) (*Stream[ratings.GroupRating], error) {
	if strings.TrimSpace(sessionId) == "" {
		return nil, ratings.ErrMissingSessionId
	}
	if itemId < 1 {
		return nil, ratings.ErrInvalidItemId
	}

	id := mongodb.GroupRatingId(sessionId, itemId)
	return observe(ctx, o.ratings, id, func(ratingDb *mongodb.GroupRatingDb) Event[ratings.GroupRating] {
		if ratingDb == nil {
			return Event[ratings.GroupRating]{}
		}
		groupRating := ratings.MapDbGroupRatingToApiGroupRating(*ratingDb)
		return Event[ratings.GroupRating]{Value: &groupRating}
	})
}

// observe subscribes before reading the current snapshot, so no commit can
// fall between the two. Changes the snapshot already includes are skipped
// by revision.
func observe[D, T any](
	ctx context.Context,
	coll store.Collection[D],
	id string,
	toEvent func(doc *D) Event[T],
) (*Stream[T], error) {
	sub, err := coll.Subscribe(ctx, id)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}

	snap, err := coll.Get(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		sub.Close()
		return nil, apperr.Unavailable(err)
	}

	s := &Stream[T]{
		events:  make(chan Event[T]),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go pump(ctx, s, sub, snap, toEvent)

	return s, nil
}

func pump[D, T any](
	ctx context.Context,
	s *Stream[T],
	sub store.Subscription[D],
	initial store.Snapshot[D],
	toEvent func(doc *D) Event[T],
) {
	defer close(s.stopped)
	defer close(s.events)
	defer sub.Close()

	send := func(ev Event[T]) bool {
		select {
		case s.events <- ev:
			return !ev.Gone
		case <-s.done:
			return false
		case <-ctx.Done():
			return false
		}
	}

	lastRev := initial.Rev
	if !send(toEvent(initial.Doc)) {
		return
	}

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case change, ok := <-sub.Changes():
			if !ok {
				if err := sub.Err(); err != nil {
					logx.FromContext(ctx).Printf("observer: subscription ended: %v", err)
					s.mu.Lock()
					s.err = apperr.Unavailable(err)
					s.mu.Unlock()
				}
				return
			}
			if change.Rev <= lastRev && change.Doc != nil {
				continue
			}
			lastRev = change.Rev
			if !send(toEvent(change.Doc)) {
				return
			}
		}
	}
}
