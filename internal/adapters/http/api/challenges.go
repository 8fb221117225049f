// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/quizrush/quizrush/internal/domain/model"
)

// ChallengeDependencies defines the interface for catalog ingestion.
type ChallengeDependencies interface {
	PutChallenge(ctx context.Context, ch model.Challenge) error
}

// ChallengesHandler ingests catalog-provided challenge records. The engine
// stores them opaquely; content legality is the catalog's concern.
type ChallengesHandler struct {
	deps ChallengeDependencies
}

// NewChallengesHandler creates a new challenges handler.
func NewChallengesHandler(deps ChallengeDependencies) *ChallengesHandler {
	return &ChallengesHandler{deps: deps}
}

// challengeRequest mirrors the catalog record shape.
type challengeRequest struct {
	ID                string  `json:"id"`
	CategoryID        string  `json:"category_id"`
	BasePoints        int     `json:"base_points"`
	DifficultyTier    int     `json:"difficulty_tier"`
	TimeLimitSeconds  float64 `json:"time_limit_seconds"`
	CorrectAnswerHash string  `json:"correct_answer_hash"`
	ActiveUntil       string  `json:"active_until"`
}

// HandlePutChallenge handles POST /challenges requests.
func (h *ChallengesHandler) HandlePutChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	activeUntil, err := time.Parse(time.RFC3339, req.ActiveUntil)
	if err != nil {
		writeBadRequest(w, "invalid active_until; must be RFC3339")
		return
	}

	ch := model.Challenge{
		ID:                req.ID,
		CategoryID:        req.CategoryID,
		BasePoints:        req.BasePoints,
		DifficultyTier:    req.DifficultyTier,
		TimeLimitSeconds:  req.TimeLimitSeconds,
		CorrectAnswerHash: req.CorrectAnswerHash,
		ActiveUntil:       activeUntil,
	}
	if err := h.deps.PutChallenge(r.Context(), ch); err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "stored"})
}
