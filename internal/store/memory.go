package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// Memory is a process-local Collection. Documents are kept BSON encoded so
// callers never share memory with the stored copy, and so equality queries
// compare values the same way the MongoDB engine does.
type Memory[T any] struct {
	mu      sync.Mutex
	docs    map[string]memDoc
	subs    map[string]map[*memSub[T]]struct{}
	uniques []uniqueIndex
}

type memDoc struct {
	raw []byte
	rev int64
}

type MemoryOption func(*memConfig)

type memConfig struct {
	uniques []uniqueIndex
}

// uniqueIndex rejects two documents with the same value of field among the
// documents matching partial, like a MongoDB partial unique index.
type uniqueIndex struct {
	field   string
	partial map[string]any
}

// WithUniqueIndex makes Insert and Transact fail with ErrDuplicate when the
// written document would share its field value with another document. Only
// documents matching partial take part; a nil partial covers all of them.
func WithUniqueIndex(field string, partial map[string]any) MemoryOption {
	return func(c *memConfig) {
		c.uniques = append(c.uniques, uniqueIndex{field: field, partial: partial})
	}
}

func NewMemory[T any](opts ...MemoryOption) *Memory[T] {
	var cfg memConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Memory[T]{
		docs:    make(map[string]memDoc),
		subs:    make(map[string]map[*memSub[T]]struct{}),
		uniques: cfg.uniques,
	}
}

func (m *Memory[T]) Get(ctx context.Context, id string) (Snapshot[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return Snapshot[T]{}, ErrNotFound
	}
	doc, err := decode[T](d.raw)
	if err != nil {
		return Snapshot[T]{}, err
	}
	return Snapshot[T]{Doc: doc, Rev: d.rev}, nil
}

func (m *Memory[T]) Insert(ctx context.Context, id string, doc T) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; ok {
		return ErrDuplicate
	}
	if err := m.checkUnique(id, raw); err != nil {
		return err
	}
	m.commit(id, raw, 1)
	return nil
}

// Transact runs fn while holding the collection lock, so transactions on a
// Memory collection never conflict. fn must not call back into m.
func (m *Memory[T]) Transact(ctx context.Context, id string, fn TransactFunc[T]) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var cur *T
	var rev int64
	if d, ok := m.docs[id]; ok {
		doc, err := decode[T](d.raw)
		if err != nil {
			return nil, err
		}
		cur, rev = doc, d.rev
	}

	next, err := fn(cur)
	if err != nil {
		return nil, err
	}
	if next == nil {
		if cur == nil {
			return nil, ErrNotFound
		}
		return cur, nil
	}

	raw, err := bson.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", id, err)
	}
	if err := m.checkUnique(id, raw); err != nil {
		return nil, err
	}
	m.commit(id, raw, rev+1)

	return decode[T](raw)
}

func (m *Memory[T]) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	for sub := range m.subs[id] {
		sub.push(Snapshot[T]{Rev: d.rev + 1})
	}
	return nil
}

func (m *Memory[T]) FindEqual(ctx context.Context, filter map[string]any) ([]T, error) {
	want, err := normalize(filter)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []T
	for _, d := range m.docs {
		var fields bson.M
		if err := bson.Unmarshal(d.raw, &fields); err != nil {
			return nil, err
		}
		if !matches(fields, want) {
			continue
		}
		doc, err := decode[T](d.raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

func (m *Memory[T]) Subscribe(ctx context.Context, id string) (Subscription[T], error) {
	sub := &memSub[T]{
		out:     make(chan Snapshot[T]),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	sub.release = func() {
		m.mu.Lock()
		delete(m.subs[id], sub)
		if len(m.subs[id]) == 0 {
			delete(m.subs, id)
		}
		m.mu.Unlock()
	}

	m.mu.Lock()
	if m.subs[id] == nil {
		m.subs[id] = make(map[*memSub[T]]struct{})
	}
	m.subs[id][sub] = struct{}{}
	m.mu.Unlock()

	go sub.pump()
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// Subscribers reports how many subscriptions on id are still open.
func (m *Memory[T]) Subscribers(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[id])
}

// checkUnique must be called with m.mu held.
func (m *Memory[T]) checkUnique(id string, raw []byte) error {
	if len(m.uniques) == 0 {
		return nil
	}

	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("decode %s: %w", id, err)
	}

	for _, idx := range m.uniques {
		var partial bson.M
		if len(idx.partial) > 0 {
			var err error
			if partial, err = normalize(idx.partial); err != nil {
				return err
			}
		}
		value, ok := fields[idx.field]
		if !ok || !matches(fields, partial) {
			continue
		}

		want := bson.M{idx.field: value}
		for otherId, d := range m.docs {
			if otherId == id {
				continue
			}
			var other bson.M
			if err := bson.Unmarshal(d.raw, &other); err != nil {
				return fmt.Errorf("decode %s: %w", otherId, err)
			}
			if matches(other, partial) && matches(other, want) {
				return fmt.Errorf("%w: %s %v is taken", ErrDuplicate, idx.field, value)
			}
		}
	}
	return nil
}

// commit must be called with m.mu held.
func (m *Memory[T]) commit(id string, raw []byte, rev int64) {
	m.docs[id] = memDoc{raw: raw, rev: rev}
	for sub := range m.subs[id] {
		doc, err := decode[T](raw)
		if err != nil {
			continue
		}
		sub.push(Snapshot[T]{Doc: doc, Rev: rev})
	}
}

// memSub queues changes without bounds so a slow reader never blocks writers.
type memSub[T any] struct {
	mu      sync.Mutex
	queue   []Snapshot[T]
	out     chan Snapshot[T]
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	release func()
}

func (s *memSub[T]) Changes() <-chan Snapshot[T] { return s.out }

func (s *memSub[T]) Err() error { return nil }

func (s *memSub[T]) Close() {
	s.once.Do(func() {
		s.release()
		close(s.done)
	})
	<-s.stopped
}

func (s *memSub[T]) push(snap Snapshot[T]) {
	s.mu.Lock()
	s.queue = append(s.queue, snap)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *memSub[T]) pump() {
	defer close(s.stopped)
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-s.done:
			return
		}
	}
}

func decode[T any](raw []byte) (*T, error) {
	var doc T
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// normalize runs filter values through the BSON codec so an int filter value
// compares equal to the int32 stored for an int field.
func normalize(filter map[string]any) (bson.M, error) {
	raw, err := bson.Marshal(bson.M(filter))
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	return out, nil
}

func matches(fields, want bson.M) bool {
	for k, v := range want {
		got, ok := fields[k]
		if !ok || !reflect.DeepEqual(got, v) {
			return false
		}
	}
	return true
}
