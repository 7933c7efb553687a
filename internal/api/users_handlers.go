package api

import (
	"encoding/json"
	"net/http"

	"github.com/lealre/ratebeer-backend/internal/auth"
	"github.com/lealre/ratebeer-backend/internal/logx"
	"github.com/lealre/ratebeer-backend/internal/services/users"
)

func (api *API) CreateUser(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())

	var req users.NewUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Printf("ERROR: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	user, err := api.Users.AddUser(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, user)
}

func (api *API) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())
	currentUser, err := auth.CurrentUser(r.Context())
	if err != nil {
		RespondWithUnauthorized(w, err)
		return
	}

	user, err := api.Users.GetUser(r.Context(), currentUser.Id)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}
