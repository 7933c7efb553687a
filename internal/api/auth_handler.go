package api

import (
	"encoding/json"
	"net/http"

	"github.com/lealre/ratebeer-backend/internal/auth"
	"github.com/lealre/ratebeer-backend/internal/logx"
)

func (api *API) Login(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())

	var authReq auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&authReq); err != nil {
		logger.Printf("ERROR: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	loginResponse, err := api.Users.Login(r.Context(), authReq)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, loginResponse)
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, DefaultResponse{Message: "Home"})
}
