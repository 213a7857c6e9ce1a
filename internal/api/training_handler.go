package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/lingdou-api/internal/api/shared"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/service/ledger"
	"github.com/phrazzld/lingdou-api/internal/service/training"
)

// defaultHistoryLimit is the page size when no limit is given.
const defaultHistoryLimit = 20

// TrainingHandler serves training session endpoints.
type TrainingHandler struct {
	training training.Service
	logger   *slog.Logger
}

// NewTrainingHandler creates a TrainingHandler.
func NewTrainingHandler(svc training.Service, logger *slog.Logger) *TrainingHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TrainingHandler")
	}
	return &TrainingHandler{
		training: svc,
		logger:   logger.With(slog.String("component", "training_handler")),
	}
}

// FinishSession handles POST /api/sessions/{id}/finish. The session is
// graded, scored and recorded with its reward in one step.
func (h *TrainingHandler) FinishSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	sessionID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req FinishSessionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.training.Finish(r.Context(), userID, sessionID, req.toService())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to finish training session")
		return
	}

	log.Debug("training session finished",
		slog.String("session_id", sessionID.String()),
		slog.Int("points_earned", result.Score.PointsEarned))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// ListSessions handles GET /api/sessions.
func (h *TrainingHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, err := queryLimit(r, defaultHistoryLimit, ledger.HistoryLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	sessions, err := h.training.History(r.Context(), userID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list training sessions")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, SessionsResponse{Sessions: sessions})
}
