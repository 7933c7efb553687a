package auth

import (
	"fmt"

	"github.com/lealre/ratebeer-backend/internal/apperr"
)

var (
	ErrTokenSigningMethod    = fmt.Errorf("unexpected signing method: %w", apperr.ErrUnauthenticated)
	ErrInvalidToken          = fmt.Errorf("invalid token: %w", apperr.ErrUnauthenticated)
	ErrTokenExpired          = fmt.Errorf("token has expired: %w", apperr.ErrUnauthenticated)
	ErrTokenWithNoSubject    = fmt.Errorf("token has no subject: %w", apperr.ErrUnauthenticated)
	ErrNoAuthorizationHeader = fmt.Errorf("no 'Authorization' header found: %w", apperr.ErrUnauthenticated)
	ErrMalformedAuthHeader   = fmt.Errorf("token must start with 'Bearer ': %w", apperr.ErrUnauthenticated)
	ErrNoTokenInAuthHeader   = fmt.Errorf("no token after 'Bearer ': %w", apperr.ErrUnauthenticated)
	ErrInvalidCredentials    = fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthenticated)
	ErrNoCurrentUser         = fmt.Errorf("no authenticated user: %w", apperr.ErrUnauthenticated)
)
