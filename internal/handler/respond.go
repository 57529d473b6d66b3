package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/atcdrive/drive/internal/repository"
	"github.com/atcdrive/drive/internal/service"
)

// writeJSON serializes v to the response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps a service or repository error to an HTTP status and
// a JSON error body. Unrecognized errors are logged in full and
// surfaced as a sanitized 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrFolderNotFound),
		errors.Is(err, repository.ErrFileNotFound),
		errors.Is(err, repository.ErrPermissionNotFound):
		writeJSON(w, http.StatusNotFound, errBody(err))

	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errBody(err))

	case errors.Is(err, service.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		writeJSON(w, http.StatusUnauthorized, errBody(err))

	case errors.Is(err, repository.ErrFolderNotEmpty),
		errors.Is(err, repository.ErrDuplicatePermission):
		writeJSON(w, http.StatusConflict, errBody(err))

	case errors.Is(err, repository.ErrDuplicateUser),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInactiveUser),
		errors.Is(err, service.ErrInvalidResetToken),
		errors.Is(err, service.ErrSelfDelete),
		errors.Is(err, service.ErrNotRoot),
		errors.Is(err, service.ErrFolderCycle),
		errors.Is(err, service.ErrTooManyFiles),
		errors.Is(err, service.ErrFileTooLarge):
		writeJSON(w, http.StatusBadRequest, errBody(err))

	default:
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func errBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

// decodeJSON parses the request body into dst, rejecting unknown
// fields so typos surface as 400s instead of silent no-ops.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err != nil {
		return service.ErrInvalidInput
	}
	return nil
}
