package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lealre/ratebeer-backend/internal/apperr"
	"github.com/lealre/ratebeer-backend/internal/logx"
	"github.com/lealre/ratebeer-backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const revField = "_rev"

// envelope stores the revision next to the document fields.
type envelope[T any] struct {
	Doc T     `bson:",inline"`
	Rev int64 `bson:"_rev"`
}

type changeEvent[T any] struct {
	OperationType string       `bson:"operationType"`
	FullDocument  *envelope[T] `bson:"fullDocument"`
}

// Collection implements store.Collection on top of a MongoDB collection.
// Transactions are optimistic: the document is read, the replacement is
// written only if its revision is unchanged, and the whole cycle is retried
// otherwise.
type Collection[T any] struct {
	coll       *mongo.Collection
	maxRetries int
}

var _ store.Collection[SessionDb] = (*Collection[SessionDb])(nil)

func NewCollection[T any](db *DB, name string, maxRetries int) *Collection[T] {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Collection[T]{coll: db.Collection(name), maxRetries: maxRetries}
}

func (c *Collection[T]) Get(ctx context.Context, id string) (store.Snapshot[T], error) {
	var env envelope[T]
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&env)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.Snapshot[T]{}, store.ErrNotFound
		}
		return store.Snapshot[T]{}, apperr.Unavailable(err)
	}
	return store.Snapshot[T]{Doc: &env.Doc, Rev: env.Rev}, nil
}

func (c *Collection[T]) Insert(ctx context.Context, id string, doc T) error {
	_, err := c.coll.InsertOne(ctx, envelope[T]{Doc: doc, Rev: 1})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return apperr.Unavailable(err)
	}
	return nil
}

func (c *Collection[T]) Transact(ctx context.Context, id string, fn store.TransactFunc[T]) (*T, error) {
	logger := logx.FromContext(ctx)

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		var cur *T
		var rev int64
		snap, err := c.Get(ctx, id)
		switch {
		case err == nil:
			cur, rev = snap.Doc, snap.Rev
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}

		next, err := fn(cur)
		if err != nil {
			return nil, err
		}
		if next == nil {
			if cur == nil {
				return nil, store.ErrNotFound
			}
			return cur, nil
		}

		committed, err := c.write(ctx, id, next, rev)
		if err != nil {
			return nil, err
		}
		if committed {
			return next, nil
		}
		logger.Printf("write conflict on %s/%s (attempt %d/%d), retrying", c.coll.Name(), id, attempt, c.maxRetries)
	}

	return nil, store.ErrConflict
}

// write inserts the document when rev is zero and replaces revision rev
// otherwise. It reports false when another writer got there first.
func (c *Collection[T]) write(ctx context.Context, id string, doc *T, rev int64) (bool, error) {
	env := envelope[T]{Doc: *doc, Rev: rev + 1}

	if rev == 0 {
		_, err := c.coll.InsertOne(ctx, env)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return false, nil
			}
			return false, apperr.Unavailable(err)
		}
		return true, nil
	}

	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": id, revField: rev}, env)
	if err != nil {
		return false, apperr.Unavailable(err)
	}
	return res.MatchedCount == 1, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Unavailable(err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *Collection[T]) FindEqual(ctx context.Context, filter map[string]any) ([]T, error) {
	cursor, err := c.coll.Find(ctx, bson.M(filter))
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	defer cursor.Close(ctx)

	var envs []envelope[T]
	if err := cursor.All(ctx, &envs); err != nil {
		return nil, apperr.Unavailable(err)
	}

	docs := make([]T, 0, len(envs))
	for _, env := range envs {
		docs = append(docs, env.Doc)
	}
	return docs, nil
}

func (c *Collection[T]) Subscribe(ctx context.Context, id string) (store.Subscription[T], error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: id}}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	subCtx, cancel := context.WithCancel(ctx)
	stream, err := c.coll.Watch(subCtx, pipeline, opts)
	if err != nil {
		cancel()
		return nil, apperr.Unavailable(err)
	}

	sub := &subscription[T]{
		out:    make(chan store.Snapshot[T]),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.pump(subCtx, stream)

	return sub, nil
}

type subscription[T any] struct {
	out    chan store.Snapshot[T]
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func (s *subscription[T]) Changes() <-chan store.Snapshot[T] { return s.out }

func (s *subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription[T]) Close() {
	s.cancel()
	<-s.done
}

func (s *subscription[T]) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *subscription[T]) pump(ctx context.Context, stream *mongo.ChangeStream) {
	defer close(s.done)
	defer close(s.out)
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		var event changeEvent[T]
		if err := stream.Decode(&event); err != nil {
			s.fail(apperr.Unavailable(fmt.Errorf("decode change event: %w", err)))
			return
		}

		var snap store.Snapshot[T]
		switch event.OperationType {
		case "insert", "replace", "update":
			if event.FullDocument == nil {
				// Deleted before the update lookup ran.
				continue
			}
			snap = store.Snapshot[T]{Doc: &event.FullDocument.Doc, Rev: event.FullDocument.Rev}
		case "delete":
		case "drop", "invalidate":
			select {
			case s.out <- store.Snapshot[T]{}:
			case <-ctx.Done():
			}
			return
		default:
			continue
		}

		select {
		case s.out <- snap:
		case <-ctx.Done():
			return
		}
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		s.fail(apperr.Unavailable(err))
	}
}
