package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lealre/ratebeer-backend/internal/apperr"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestJWT(t *testing.T) {
	t.Run("Round trip returns the subject", func(t *testing.T) {
		token, err := MakeJWT("user-1", testSecret, time.Minute)
		require.NoError(t, err)

		subject, err := ValidateJWT(token, testSecret)
		require.NoError(t, err)
		require.Equal(t, "user-1", subject)
	})

	t.Run("Expired token", func(t *testing.T) {
		token, err := MakeJWT("user-1", testSecret, -time.Minute)
		require.NoError(t, err)

		_, err = ValidateJWT(token, testSecret)
		require.ErrorIs(t, err, ErrTokenExpired)
		require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		token, err := MakeJWT("user-1", testSecret, time.Minute)
		require.NoError(t, err)

		_, err = ValidateJWT(token, "other-secret")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Token from another issuer", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = ValidateJWT(token, testSecret)
		require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("Token without subject", func(t *testing.T) {
		token, err := MakeJWT("", testSecret, time.Minute)
		require.NoError(t, err)

		_, err = ValidateJWT(token, testSecret)
		require.ErrorIs(t, err, ErrTokenWithNoSubject)
	})
}

func TestGetBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		token  string
		err    error
	}{
		{name: "valid", header: "Bearer abc", token: "abc"},
		{name: "extra spaces", header: "Bearer   abc  ", token: "abc"},
		{name: "missing header", header: "", err: ErrNoAuthorizationHeader},
		{name: "wrong scheme", header: "Basic abc", err: ErrMalformedAuthHeader},
		{name: "empty token", header: "Bearer  ", err: ErrNoTokenInAuthHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.header != "" {
				headers.Set("Authorization", tt.header)
			}

			token, err := GetBearerToken(headers)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.token, token)
		})
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	require.NoError(t, CheckPasswordHash(hash, "correct horse"))
	require.ErrorIs(t, CheckPasswordHash(hash, "battery staple"), ErrInvalidCredentials)
}

func TestCurrentUser(t *testing.T) {
	_, err := CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrNoCurrentUser)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)

	ctx := WithUser(context.Background(), Identity{Id: "user-1", DisplayName: "Alice"})
	user, err := CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, Identity{Id: "user-1", DisplayName: "Alice"}, user)
}
