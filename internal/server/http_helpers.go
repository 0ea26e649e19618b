package server

import (
	"encoding/json"
	"io"
	"net/http"

	"party-pulse/internal/program"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps the error taxonomy to HTTP statuses. Not-found
// deliberately covers "exists but not yours" so existence never leaks.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case program.IsAuthorization(err):
		writeError(w, http.StatusForbidden, err.Error())
	case program.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case program.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found")
	case program.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// actorFrom reads the authenticated user id. Authentication itself is an
// external collaborator; upstream middleware sets the header.
func actorFrom(r *http.Request) program.Actor {
	return program.Actor{UserID: r.Header.Get("X-User-ID")}
}
