package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lealre/ratebeer-backend/internal/api"
	"github.com/lealre/ratebeer-backend/internal/auth"
	"github.com/lealre/ratebeer-backend/internal/catalog"
	"github.com/lealre/ratebeer-backend/internal/mongodb"
	"github.com/lealre/ratebeer-backend/internal/services/observer"
	"github.com/lealre/ratebeer-backend/internal/services/ratings"
	"github.com/lealre/ratebeer-backend/internal/services/sessions"
	"github.com/lealre/ratebeer-backend/internal/services/users"
	"github.com/lealre/ratebeer-backend/internal/store"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeCatalog struct {
	items map[int]catalog.Item
}

func (c *fakeCatalog) GetItem(ctx context.Context, itemId int) (catalog.Item, error) {
	item, ok := c.items[itemId]
	if !ok {
		return catalog.Item{}, catalog.ErrItemNotFound
	}
	return item, nil
}

func (c *fakeCatalog) SearchItems(ctx context.Context, name string, page, perPage int) (catalog.SearchResponse, error) {
	resp := catalog.SearchResponse{Items: []catalog.Item{}, Page: page, PerPage: perPage}
	for _, item := range c.items {
		if strings.Contains(strings.ToLower(item.Name), strings.ToLower(name)) {
			resp.Items = append(resp.Items, item)
		}
	}
	return resp, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWithSessions(t, store.NewMemory[mongodb.SessionDb](mongodb.SessionMemoryIndexes...))
}

func newTestServerWithSessions(t *testing.T, sessionsColl store.Collection[mongodb.SessionDb]) *httptest.Server {
	t.Helper()

	ratingsColl := store.NewMemory[mongodb.GroupRatingDb]()
	usersColl := store.NewMemory[mongodb.UserDb](mongodb.UserMemoryIndexes...)

	lookup := &fakeCatalog{items: map[int]catalog.Item{
		1: {Id: 1, Name: "Buzz", Category: "A Real Bitter Experience.", Strength: 4.5},
		2: {Id: 2, Name: "Trashy Blonde", Category: "You Know You Shouldn't", Strength: 4.1},
	}}

	a := api.NewAPI(
		sessions.NewManager(sessionsColl),
		ratings.NewAggregator(ratingsColl),
		observer.NewObserver(sessionsColl, ratingsColl),
		lookup,
		users.NewService(usersColl, testSecret, time.Hour),
	)

	srv := httptest.NewServer(NewServer(a))
	t.Cleanup(srv.Close)
	return srv
}

// doJSON sends body as JSON and decodes the response into out when out is
// not nil. It returns the status code.
func doJSON(t *testing.T, srv *httptest.Server, method, path, token string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// registerAndLogin creates an account and returns its access token.
func registerAndLogin(t *testing.T, srv *httptest.Server, username, name string) string {
	t.Helper()

	status := doJSON(t, srv, http.MethodPost, "/users", "", users.NewUserRequest{
		Username: username,
		Name:     name,
		Password: "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var login auth.LoginResponse
	status = doJSON(t, srv, http.MethodPost, "/login", "", auth.LoginRequest{
		Username: username,
		Password: "password123",
	}, &login)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, login.AccessToken)

	return login.AccessToken
}
