// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizrush/quizrush/internal/domain/model"
)

// RankDependencies defines the interface for rank lookups.
type RankDependencies interface {
	UserRank(ctx context.Context, scope, userID string) (model.Entry, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{userID}?scope= requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeBadRequest(w, "missing user id")
		return
	}
	scope := r.URL.Query().Get("scope")

	entry, err := h.deps.UserRank(r.Context(), scope, userID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
