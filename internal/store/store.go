// Package store defines the document store contract the services are written
// against: single-document reads, atomic read-modify-write transactions,
// equality queries and per-document change subscriptions.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/lealre/ratebeer-backend/internal/apperr"
)

var (
	ErrNotFound  = fmt.Errorf("document not found: %w", apperr.ErrNotFound)
	ErrDuplicate = errors.New("document already exists")
	ErrConflict  = fmt.Errorf("write conflict retries exhausted: %w", apperr.ErrStoreUnavailable)
)

// Snapshot is a committed version of a document. A nil Doc means the document
// does not exist (or was deleted).
type Snapshot[T any] struct {
	Doc *T
	Rev int64
}

// TransactFunc receives the latest committed document, nil when absent, and
// returns its replacement. Returning (nil, nil) leaves the document untouched.
// Returning an error aborts the transaction and the error is passed through.
type TransactFunc[T any] func(cur *T) (*T, error)

type Collection[T any] interface {
	Get(ctx context.Context, id string) (Snapshot[T], error)
	Insert(ctx context.Context, id string, doc T) error
	// Transact applies fn atomically to the document id. fn may run more than
	// once when a concurrent writer commits first, so it must be pure.
	Transact(ctx context.Context, id string, fn TransactFunc[T]) (*T, error)
	// Delete hard-removes a document. Sessions end by deactivation, so it
	// serves hard teardown and retention tooling; subscribers see a nil Doc.
	Delete(ctx context.Context, id string) error
	FindEqual(ctx context.Context, filter map[string]any) ([]T, error)
	// Subscribe streams every change committed to id after the call, in
	// commit order.
	Subscribe(ctx context.Context, id string) (Subscription[T], error)
}

type Subscription[T any] interface {
	Changes() <-chan Snapshot[T]
	// Err reports why Changes was closed: nil after Close or context
	// cancellation, an apperr.ErrStoreUnavailable kind otherwise.
	Err() error
	// Close releases the subscription. It is safe to call more than once and
	// returns only once no further value will be sent.
	Close()
}
