package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/maggiegpt/server/internal/logger"
	"github.com/maggiegpt/server/internal/model"
)

// messageOverrides customizes per-endpoint client messages for errors
// whose wording depends on the resource.
type messageOverrides struct {
	missingFields string
	notFound      string
	invalidCode   string
	codeExpired   string
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondError maps a service error to an HTTP status and client
// message. Internal details are logged, never echoed.
func respondError(w http.ResponseWriter, log *logger.Logger, err error, o messageOverrides) {
	status, message := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, model.ErrMissingFields):
		status, message = http.StatusBadRequest, orDefault(o.missingFields, "All fields are required")
	case errors.Is(err, model.ErrInvalidEmail):
		status, message = http.StatusUnprocessableEntity, "Invalid email format"
	case errors.Is(err, model.ErrWeakPassword):
		status, message = http.StatusUnprocessableEntity, "Password must be at least 8 characters"
	case errors.Is(err, model.ErrEmailTaken):
		status, message = http.StatusConflict, "Email already registered"
	case errors.Is(err, model.ErrInvalidCredentials):
		status, message = http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, model.ErrEmailNotVerified):
		status, message = http.StatusForbidden, "Please verify your email before logging in"
	case errors.Is(err, model.ErrInvalidCode):
		status, message = http.StatusBadRequest, orDefault(o.invalidCode, "Invalid code")
	case errors.Is(err, model.ErrCodeExpired):
		status, message = http.StatusBadRequest, orDefault(o.codeExpired, "Code expired")
	case errors.Is(err, model.ErrInvalidToken):
		status, message = http.StatusForbidden, "Invalid or expired token"
	case errors.Is(err, model.ErrMissingToken):
		status, message = http.StatusUnauthorized, "Authorization token required"
	case errors.Is(err, model.ErrInvalidResetToken):
		status, message = http.StatusBadRequest, "Invalid or expired reset token"
	case errors.Is(err, model.ErrResendCooldown):
		status, message = http.StatusTooManyRequests, "Please wait before requesting another code"
	case errors.Is(err, model.ErrGuestLimitReached):
		respondJSON(w, http.StatusUnauthorized, map[string]string{
			"status":  "unauthenticated",
			"message": "Guest limit reached, please log in",
		})
		return
	case errors.Is(err, model.ErrNotFound):
		status, message = http.StatusNotFound, orDefault(o.notFound, "Not found")
	default:
		log.Error("Handler: internal error", "error", err.Error())
	}

	writeError(w, status, message)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
