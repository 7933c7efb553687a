package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/lealre/ratebeer-backend/internal/auth"
	"github.com/lealre/ratebeer-backend/internal/logx"
	"github.com/lealre/ratebeer-backend/internal/services/sessions"
)

func (api *API) CreateSession(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())
	currentUser, err := auth.CurrentUser(r.Context())
	if err != nil {
		RespondWithUnauthorized(w, err)
		return
	}

	// The body is optional.
	var req sessions.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Printf("ERROR: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		req.DisplayName = currentUser.DisplayName
	}

	session, err := api.Sessions.CreateSession(r.Context(), currentUser.Id, req.DisplayName)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	logger.Printf("Session %s created with pin %s", session.Id, session.Pin)
	respondWithJSON(w, http.StatusCreated, session)
}

func (api *API) JoinSession(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())
	currentUser, err := auth.CurrentUser(r.Context())
	if err != nil {
		RespondWithUnauthorized(w, err)
		return
	}

	var req sessions.JoinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Printf("ERROR: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		req.DisplayName = currentUser.DisplayName
	}

	session, err := api.Sessions.JoinSession(r.Context(), strings.TrimSpace(req.Pin), currentUser.Id, req.DisplayName)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}

func (api *API) GetSession(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())

	session, err := api.Sessions.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}

// SelectItem opens voting on an item. When the request carries no item name
// it is looked up in the catalog.
func (api *API) SelectItem(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())
	currentUser, err := auth.CurrentUser(r.Context())
	if err != nil {
		RespondWithUnauthorized(w, err)
		return
	}

	var req sessions.SelectItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Printf("ERROR: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.ItemId < 1 {
		respondWithServiceError(w, logger, sessions.ErrInvalidItem)
		return
	}

	if strings.TrimSpace(req.ItemName) == "" {
		item, err := api.Catalog.GetItem(r.Context(), req.ItemId)
		if err != nil {
			respondWithServiceError(w, logger, err)
			return
		}
		req.ItemName = item.Name
	}

	session, err := api.Sessions.SelectItem(r.Context(), r.PathValue("id"), currentUser.Id, req.ItemId, req.ItemName)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}

func (api *API) AdvanceToResults(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())
	currentUser, err := auth.CurrentUser(r.Context())
	if err != nil {
		RespondWithUnauthorized(w, err)
		return
	}

	session, err := api.Sessions.AdvanceToResults(r.Context(), r.PathValue("id"), currentUser.Id)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}

func (api *API) ReturnToSelection(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())
	currentUser, err := auth.CurrentUser(r.Context())
	if err != nil {
		RespondWithUnauthorized(w, err)
		return
	}

	session, err := api.Sessions.ReturnToSelection(r.Context(), r.PathValue("id"), currentUser.Id)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}

func (api *API) LeaveSession(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())
	currentUser, err := auth.CurrentUser(r.Context())
	if err != nil {
		RespondWithUnauthorized(w, err)
		return
	}

	if err := api.Sessions.LeaveSession(r.Context(), r.PathValue("id"), currentUser.Id); err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, DefaultResponse{Message: "Left the session"})
}
