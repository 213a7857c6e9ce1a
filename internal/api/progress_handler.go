package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/lingdou-api/internal/api/shared"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/domain/resolver"
	"github.com/phrazzld/lingdou-api/internal/platform/logger"
	"github.com/phrazzld/lingdou-api/internal/service/progress"
)

const defaultLeaderboardLimit = 10

// ProgressHandler serves progress, unlock map and leaderboard endpoints.
type ProgressHandler struct {
	progress progress.Service
	logger   *slog.Logger
}

// NewProgressHandler creates a ProgressHandler.
func NewProgressHandler(svc progress.Service, logger *slog.Logger) *ProgressHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ProgressHandler")
	}
	return &ProgressHandler{
		progress: svc,
		logger:   logger.With(slog.String("component", "progress_handler")),
	}
}

// GetProgress handles GET /api/progress/{userId}/{topicRef}. The optional
// category and module query parameters scope the reference. A topic the
// user never touched yields default progress.
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := selfFromPath(w, r, "userId")
	if !ok {
		return
	}
	topicRef := chi.URLParam(r, "topicRef")

	view, err := h.progress.Get(r.Context(), userID, topicRef, scopeFromQuery(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load progress")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// scopeFromQuery reads the category and module a topic reference belongs to.
func scopeFromQuery(r *http.Request) resolver.Scope {
	q := r.URL.Query()
	return resolver.Scope{Category: q.Get("category"), Module: q.Get("module")}
}

// UnlockMap handles GET /api/unlock-map/{userId}/{moduleKey}.
func (h *ProgressHandler) UnlockMap(w http.ResponseWriter, r *http.Request) {
	userID, ok := selfFromPath(w, r, "userId")
	if !ok {
		return
	}
	m, err := h.progress.UnlockMap(r.Context(), userID, chi.URLParam(r, "moduleKey"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load unlock map")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, m)
}

// CategoryMap handles GET /api/category-map/{userId}/{category}.
func (h *ProgressHandler) CategoryMap(w http.ResponseWriter, r *http.Request) {
	userID, ok := selfFromPath(w, r, "userId")
	if !ok {
		return
	}
	m, err := h.progress.CategoryMap(r.Context(), userID, chi.URLParam(r, "category"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load category map")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, m)
}

// MarkLearned handles POST /api/topics/{topicRef}/learned. The optional
// category and module query parameters scope the reference as in
// GetProgress.
func (h *ProgressHandler) MarkLearned(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	topicRef := chi.URLParam(r, "topicRef")

	view, err := h.progress.MarkLearned(r.Context(), userID, topicRef, scopeFromQuery(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record learning")
		return
	}

	log.Debug("topic learned", slog.String("topic_id", view.Topic.ID))
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// Leaderboard handles GET /api/leaderboard?sort=&limit=. The sort defaults
// to total_score.
func (h *ProgressHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	sortBy := domain.SortTotalScore
	if raw := r.URL.Query().Get("sort"); raw != "" {
		sortBy = domain.LeaderboardSort(raw)
		if !sortBy.Valid() {
			HandleAPIError(w, r, fmt.Errorf("%w: unknown sort %q", domain.ErrValidation, raw), "")
			return
		}
	}
	limit, err := queryLimit(r, defaultLeaderboardLimit, progress.MaxLeaderboardLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	entries, err := h.progress.Leaderboard(r.Context(), sortBy, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load leaderboard")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, LeaderboardResponse{SortBy: sortBy, Entries: entries})
}
