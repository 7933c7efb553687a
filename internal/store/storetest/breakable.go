// Package storetest provides store.Collection wrappers for exercising how
// callers cope with a failing backend.
package storetest

import (
	"context"
	"sync"

	"github.com/lealre/ratebeer-backend/internal/store"
)

// Breakable passes every call through to the wrapped collection, except
// that Break ends all open subscriptions with an error, the way a dropped
// change stream does.
type Breakable[T any] struct {
	store.Collection[T]

	mu   sync.Mutex
	subs map[*breakableSub[T]]struct{}
}

func NewBreakable[T any](coll store.Collection[T]) *Breakable[T] {
	return &Breakable[T]{Collection: coll, subs: make(map[*breakableSub[T]]struct{})}
}

func (b *Breakable[T]) Subscribe(ctx context.Context, id string) (store.Subscription[T], error) {
	inner, err := b.Collection.Subscribe(ctx, id)
	if err != nil {
		return nil, err
	}

	sub := &breakableSub[T]{
		inner:   inner,
		out:     make(chan store.Snapshot[T]),
		broken:  make(chan error, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	sub.release = func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go sub.forward()
	return sub, nil
}

// Break fails every open subscription with err.
func (b *Breakable[T]) Break(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.broken <- err:
		default:
		}
	}
}

// Open reports how many subscriptions have not been closed yet.
func (b *Breakable[T]) Open() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

type breakableSub[T any] struct {
	inner   store.Subscription[T]
	out     chan store.Snapshot[T]
	broken  chan error
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	release func()

	mu  sync.Mutex
	err error
}

func (s *breakableSub[T]) Changes() <-chan store.Snapshot[T] { return s.out }

func (s *breakableSub[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *breakableSub[T]) Close() {
	s.once.Do(func() { close(s.done) })
	<-s.stopped
	s.inner.Close()
	s.release()
}

func (s *breakableSub[T]) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *breakableSub[T]) forward() {
	defer close(s.stopped)
	defer close(s.out)

	for {
		select {
		case snap, ok := <-s.inner.Changes():
			if !ok {
				s.fail(s.inner.Err())
				return
			}
			select {
			case s.out <- snap:
			case err := <-s.broken:
				s.fail(err)
				return
			case <-s.done:
				return
			}
		case err := <-s.broken:
			s.fail(err)
			return
		case <-s.done:
			return
		}
	}
}
