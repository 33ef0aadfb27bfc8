package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"stepChallengeAPI/internal/apperrors"
)

var validate = validator.New()

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithDomainError maps the domain error taxonomy onto HTTP
// statuses. Anything outside it is an opaque infrastructure failure.
func respondWithDomainError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.TypeValidation:
		respondWithError(w, http.StatusBadRequest, appErr.Message)
	case apperrors.TypeFutureDate, apperrors.TypeChallengePeriod:
		respondWithError(w, http.StatusUnprocessableEntity, appErr.Message)
	case apperrors.TypeTransientConflict:
		respondWithError(w, http.StatusServiceUnavailable, appErr.Message)
	case apperrors.TypeNotFound:
		respondWithError(w, http.StatusNotFound, appErr.Message)
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
