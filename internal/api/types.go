package api

import (
	"github.com/lealre/ratebeer-backend/internal/catalog"
	"github.com/lealre/ratebeer-backend/internal/services/ratings"
)

type ErrorResponse struct {
	StatusCode   int    `json:"statusCode"`
	ErrorMessage string `json:"errorMessage"`
}

type DefaultResponse struct {
	Message string `json:"message"`
}

// RatingSummary is what the results screen shows for one item: the group's
// rating, the average over every session and the catalog details. Parts
// that do not exist (yet) are left out.
type RatingSummary struct {
	GroupRating   *ratings.GroupRating   `json:"groupRating,omitempty"`
	GlobalAverage *ratings.GlobalAverage `json:"globalAverage,omitempty"`
	Item          *catalog.Item          `json:"item,omitempty"`
}
