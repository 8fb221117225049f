// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/quizrush/quizrush/internal/domain/model"
)

const defaultLeaderboardLimit = 10

// LeaderboardDependencies defines the interface for leaderboard reads.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, scope string, window model.Window, limit int) ([]model.Entry, int, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, maxLimit: maxLimit}
}

type leaderboardResponse struct {
	Entries []model.Entry `json:"entries"`
	Total   int           `json:"total"`
}

// HandleGetLeaderboard handles GET /leaderboard?scope=&window=&limit=N.
// A windowed read filters current standings by recent activity; the rank
// numbers remain all-time ordinals.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")

	window := model.Window(r.URL.Query().Get("window"))
	if window == "" {
		window = model.WindowAllTime
	}
	if !window.Valid() {
		writeBadRequest(w, "unknown window; want daily, weekly, monthly, or all_time")
		return
	}

	limit := defaultLeaderboardLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > h.maxLimit {
		writeBadRequest(w, "limit exceeds maximum of "+strconv.Itoa(h.maxLimit))
		return
	}

	entries, total, err := h.deps.Leaderboard(r.Context(), scope, window, limit)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Entries: entries, Total: total})
}
