package api

import (
	"net/http"

	"github.com/lealre/ratebeer-backend/internal/generics"
	"github.com/lealre/ratebeer-backend/internal/logx"
)

func (api *API) SearchItems(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())

	name := r.URL.Query().Get("name")
	page := generics.StringToInt(r.URL.Query().Get("page"))
	perPage := generics.StringToInt(r.URL.Query().Get("perPage"))

	items, err := api.Catalog.SearchItems(r.Context(), name, page, perPage)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}

func (api *API) GetItem(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context())

	itemId, err := pathItemId(r)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	item, err := api.Catalog.GetItem(r.Context(), itemId)
	if err != nil {
		respondWithServiceError(w, logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, item)
}
