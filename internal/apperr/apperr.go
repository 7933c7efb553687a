package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every service operation fails with an error that matches
// exactly one of these through errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidState     = errors.New("invalid state")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUnauthenticated  = errors.New("unauthenticated")
)

var kinds = []error{
	ErrNotFound,
	ErrForbidden,
	ErrInvalidState,
	ErrInvalidArgument,
	ErrStoreUnavailable,
	ErrUnauthenticated,
}

// ErrorMap maps every kind to the HTTP status the api layer answers with.
var ErrorMap = map[error]int{
	ErrNotFound:         http.StatusNotFound,
	ErrForbidden:        http.StatusForbidden,
	ErrInvalidState:     http.StatusConflict,
	ErrInvalidArgument:  http.StatusBadRequest,
	ErrStoreUnavailable: http.StatusServiceUnavailable,
	ErrUnauthenticated:  http.StatusUnauthorized,
}

// KindOf returns the kind err belongs to, or nil when it is not classified.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Unavailable classifies an unexpected backend failure. Errors that already
// carry a kind are returned unchanged.
func Unavailable(err error) error {
	if err == nil || KindOf(err) != nil {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
