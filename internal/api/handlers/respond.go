package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/mantis-client/internal/tracker"
	"github.com/rs/zerolog/log"
)

// respondJSON writes payload as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError writes {"message": message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondServiceError maps a tracker error to a response. notFound is the
// message used for ErrNotFound.
func respondServiceError(w http.ResponseWriter, err error, notFound string) {
	var verr *tracker.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, tracker.ErrNotFound):
		respondError(w, http.StatusNotFound, notFound)
	case errors.Is(err, tracker.ErrConflict):
		respondError(w, http.StatusConflict, "Already exists")
	default:
		log.Error().Err(err).Msg("Request failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON decodes the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
