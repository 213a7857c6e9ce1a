package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/api/shared"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/redact"
	"github.com/phrazzld/lingdou-api/internal/service"
	"github.com/phrazzld/lingdou-api/internal/service/auth"
)

// currentUser returns the authenticated user, writing a 401 when the
// request has none.
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, auth.ErrMissingToken, "")
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID parses the UUID path parameter paramName.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrValidation, paramName)
	}
	return id, nil
}

// selfFromPath authenticates the request and checks that the path user
// is the caller. Only self-service reads are allowed.
func selfFromPath(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return uuid.Nil, false
	}
	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return uuid.Nil, false
	}
	if pathID != userID {
		logger.FromContextOrDefault(r.Context(), slog.Default()).Warn("cross-user access denied",
			slog.String("path_user_id", pathID.String()))
		HandleAPIError(w, r, service.ErrForbidden, "")
		return uuid.Nil, false
	}
	return userID, true
}

// decodeAndValidate decodes the JSON body into req and validates it,
// writing a 400 on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	log := logger.FromContextOrDefault(r.Context(), slog.Default())
	if err := shared.DecodeJSON(r, req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// queryLimit reads the limit query parameter, defaulting to def. Values
// outside 1..upper are rejected.
func queryLimit(r *http.Request, def, upper int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > upper {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrValidation, upper)
	}
	return n, nil
}
