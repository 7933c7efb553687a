package users

import (
	"fmt"
	"regexp"

	"github.com/lealre/ratebeer-backend/internal/apperr"
)

const minPasswordLength = 8

var (
	ErrUserNotFound       = fmt.Errorf("user not found: %w", apperr.ErrNotFound)
	ErrUsernameTaken      = fmt.Errorf("username already taken: %w", apperr.ErrInvalidState)
	ErrInvalidUsername    = fmt.Errorf("username may only contain letters, digits, '_' and '-': %w", apperr.ErrInvalidArgument)
	ErrMissingName        = fmt.Errorf("name is required: %w", apperr.ErrInvalidArgument)
	ErrPasswordTooShort   = fmt.Errorf("password must have at least %d characters: %w", minPasswordLength, apperr.ErrInvalidArgument)
	ErrMissingCredentials = fmt.Errorf("username and password are required: %w", apperr.ErrInvalidArgument)
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func IsValidUsername(username string) bool {
	return usernameRegex.MatchString(username)
}
