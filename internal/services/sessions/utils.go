package sessions

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/lealre/ratebeer-backend/internal/apperr"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
)

var (
	ErrSessionNotFound   = fmt.Errorf("session not found or no longer active: %w", apperr.ErrNotFound)
	ErrNotHost           = fmt.Errorf("only the host of the session can perform this action: %w", apperr.ErrForbidden)
	ErrInvalidTransition = fmt.Errorf("action not allowed in the current session status: %w", apperr.ErrInvalidState)
	ErrInvalidPin        = fmt.Errorf("pin must be exactly 6 digits: %w", apperr.ErrInvalidArgument)
	ErrMissingUserId     = fmt.Errorf("user id is required: %w", apperr.ErrInvalidArgument)
	ErrMissingSessionId  = fmt.Errorf("session id is required: %w", apperr.ErrInvalidArgument)
	ErrInvalidItem       = fmt.Errorf("item id must be positive and item name is required: %w", apperr.ErrInvalidArgument)
	ErrPinsExhausted     = fmt.Errorf("could not allocate a free session pin: %w", apperr.ErrStoreUnavailable)
)

const (
	pinLength          = 6
	defaultHostName    = "Host"
	defaultJoinerName  = "User"
	defaultPinAttempts = 10
)

var pinRegex = regexp.MustCompile(`^[0-9]{6}$`)

func IsValidPin(pin string) bool {
	return pinRegex.MatchString(pin)
}

// RandomPin returns a uniformly distributed, zero padded 6 digit PIN.
func RandomPin() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return fmt.Sprintf("%0*d", pinLength, n.Int64())
}

func displayNameOr(name, fallback string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return fallback
}

func memberIndex(members []mongodb.MemberDb, userId string) int {
	for i, member := range members {
		if member.UserId == userId {
			return i
		}
	}
	return -1
}
