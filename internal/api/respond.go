package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"repowatch/internal/apperrors"
)

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}

// respondWithServiceError maps the application error taxonomy onto HTTP
// statuses: validation 400, subscription conflicts 409 / missing 404,
// duplicate email 409, GitHub failures 503, everything else a generic 500.
func respondWithServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var validationErr *apperrors.ValidationError
	var subscriptionErr *apperrors.SubscriptionError
	var githubErr *apperrors.GitHubError

	switch {
	case errors.As(err, &validationErr):
		respondWithError(w, http.StatusBadRequest, validationErr.Msg)
	case errors.As(err, &subscriptionErr):
		status := http.StatusConflict
		if subscriptionErr.NotFound {
			status = http.StatusNotFound
		}
		respondWithError(w, status, subscriptionErr.Msg)
	case errors.Is(err, apperrors.ErrDuplicateEmail):
		respondWithError(w, http.StatusConflict, "Email already registered")
	case errors.As(err, &githubErr):
		logger.Error("GitHub API failure", "error", err)
		respondWithError(w, http.StatusServiceUnavailable, "GitHub API is unavailable")
	default:
		logger.Error("Unhandled error", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
