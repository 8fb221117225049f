// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	app "github.com/quizrush/quizrush/internal/app"
)

// StreakDependencies defines the interface for streak reads.
type StreakDependencies interface {
	Streak(ctx context.Context, userID, scope string) (app.StreakInfo, error)
}

// StreakHandler handles streak requests.
type StreakHandler struct {
	deps StreakDependencies
}

// NewStreakHandler creates a new streak handler.
func NewStreakHandler(deps StreakDependencies) *StreakHandler {
	return &StreakHandler{deps: deps}
}

type streakResponse struct {
	Current int  `json:"current"`
	Longest int  `json:"longest"`
	AtRisk  bool `json:"at_risk"`
}

// HandleGetStreak handles GET /streak/{userID}?scope= requests. The reported
// current streak is self-healed: a lapsed streak reads as zero.
func (h *StreakHandler) HandleGetStreak(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeBadRequest(w, "missing user id")
		return
	}
	scope := r.URL.Query().Get("scope")

	info, err := h.deps.Streak(r.Context(), userID, scope)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, streakResponse{
		Current: info.Current,
		Longest: info.Longest,
		AtRisk:  info.AtRisk,
	})
}
