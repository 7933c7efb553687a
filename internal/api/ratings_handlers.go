package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lealre/ratebeer-backend/internal/apperr"
	"github.com/lealre/ratebeer-backend/internal/auth"
	"github.com/lealre/ratebeer-backend/internal/logx"
	"github.com/lealre/ratebeer-backend/internal/services/ratings"
)

func (api *API) SubmitRating(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())
	currentUser, err := auth.CurrentUser(r.Context())
	if err != nil {
		RespondWithUnauthorized(w, err)
		return
	}

	var req ratings.NewRating
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Printf("ERROR: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	groupRating, err := api.Ratings.SubmitRating(
		r.Context(), r.PathValue("id"), req.ItemId, currentUser.Id, currentUser.DisplayName, req.Score,
	)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, groupRating)
}

func (api *API) GetGroupRating(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())

	itemId, err := pathItemId(r)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	groupRating, err := api.Ratings.GetGroupRating(r.Context(), r.PathValue("id"), itemId)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, groupRating)
}

func (api *API) GetGlobalAverage(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())

	itemId, err := pathItemId(r)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	globalAverage, err := api.Ratings.GetGlobalAverage(r.Context(), itemId)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, globalAverage)
}

// GetRatingSummary combines the group rating, the global average and the
// catalog entry of an item. A catalog outage only drops the item details.
func (api *API) GetRatingSummary(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())

	itemId, err := pathItemId(r)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	var summary RatingSummary

	groupRating, err := api.Ratings.GetGroupRating(r.Context(), r.PathValue("id"), itemId)
	switch {
	case err == nil:
		summary.GroupRating = &groupRating
	case !errors.Is(err, apperr.ErrNotFound):
		respondWithServiceError(w, logger, err)
		return
	}

	globalAverage, err := api.Ratings.GetGlobalAverage(r.Context(), itemId)
	switch {
	case err == nil:
		summary.GlobalAverage = &globalAverage
	case !errors.Is(err, apperr.ErrNotFound):
		respondWithServiceError(w, logger, err)
		return
	}

	item, err := api.Catalog.GetItem(r.Context(), itemId)
	if err != nil {
		logger.Printf("catalog lookup for item %d failed: %v", itemId, err)
	} else {
		summary.Item = &item
	}

	respondWithJSON(w, http.StatusOK, summary)
}
