package api

import (
	"github.com/lealre/ratebeer-backend/internal/catalog"
	"github.com/lealre/ratebeer-backend/internal/services/observer"
	"github.com/lealre/ratebeer-backend/internal/services/ratings"
	"github.com/lealre/ratebeer-backend/internal/services/sessions"
	"github.com/lealre/ratebeer-backend/internal/services/users"
)

type API struct {
	Sessions *sessions.Manager
	Ratings  *ratings.Aggregator
	Observer *observer.Observer
	Catalog  catalog.Lookup
	Users    *users.Service
}

func NewAPI(
	sessionManager *sessions.Manager,
	aggregator *ratings.Aggregator,
	sessionObserver *observer.Observer,
	lookup catalog.Lookup,
	userService *users.Service,
) *API {
	return &API{
		Sessions: sessionManager,
		Ratings:  aggregator,
		Observer: sessionObserver,
		Catalog:  lookup,
		Users:    userService,
	}
}

// PublicPaths lists the "METHOD /path" pairs served without a token.
var PublicPaths = map[string]bool{
	"GET /":       true,
	"POST /users": true,
	"POST /login": true,
}
