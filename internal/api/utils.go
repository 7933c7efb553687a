package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/lealre/ratebeer-backend/internal/apperr"
	"github.com/lealre/ratebeer-backend/internal/generics"
)

var ErrInvalidItemId = fmt.Errorf("item id must be a positive integer: %w", apperr.ErrInvalidArgument)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) error {
	response, err := json.Marshal(&payload)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)

	return nil
}

func respondWithError(w http.ResponseWriter, code int, msg string) error {
	messageBody := ErrorResponse{
		StatusCode:   code,
		ErrorMessage: msg,
	}
	return respondWithJSON(w, code, messageBody)
}

func RespondWithUnauthorized(w http.ResponseWriter, err error) error {
	statusCode := http.StatusUnauthorized
	messageBody := ErrorResponse{
		StatusCode:   statusCode,
		ErrorMessage: formatErrorMessage(err),
	}
	return respondWithJSON(w, statusCode, messageBody)
}

/*
respondWithServiceError answers with the status of the error kind err
belongs to (see apperr.ErrorMap).

Backend failures and unclassified errors are logged and answered with a
generic message so driver errors never reach the client.
*/
func respondWithServiceError(w http.ResponseWriter, logger *log.Logger, err error) error {
	statusCode, ok := getErrorStatusCode(apperr.ErrorMap, err)
	switch {
	case !ok:
		logger.Printf("ERROR: %v", err)
		return respondWithError(w, http.StatusInternalServerError, "Unexpected error occurred")
	case errors.Is(err, apperr.ErrStoreUnavailable):
		logger.Printf("ERROR: %v", err)
		return respondWithError(w, statusCode, "Service temporarily unavailable, please try again")
	}
	return respondWithError(w, statusCode, formatErrorMessage(err))
}

func formatErrorMessage(err error) string {
	errorMsg := err.Error()
	if len(errorMsg) > 0 {
		return strings.ToUpper(errorMsg[:1]) + errorMsg[1:]
	}
	return ""
}

// getErrorStatusCode safely checks if an error is in the ErrorMap by iterating through it
// and using errors.Is() to match errors. This prevents panics when non-hashable errors
// (like MongoDB errors) are passed as map keys.
func getErrorStatusCode(errMap map[error]int, err error) (int, bool) {
	for predefinedErr, statusCode := range errMap {
		if errors.Is(err, predefinedErr) {
			return statusCode, true
		}
	}
	return 0, false
}

func pathItemId(r *http.Request) (int, error) {
	itemId := generics.StringToInt(r.PathValue("itemId"))
	if itemId < 1 {
		return 0, ErrInvalidItemId
	}
	return itemId, nil
}
