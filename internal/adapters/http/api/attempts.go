// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	app "github.com/quizrush/quizrush/internal/app"
)

// AttemptDependencies defines the interface for attempt submission.
type AttemptDependencies interface {
	SubmitAttempt(ctx context.Context, userID, challengeID, answer string, timeTakenSeconds float64) (app.SubmitResult, error)
}

// AttemptsHandler handles attempt submissions.
type AttemptsHandler struct {
	deps AttemptDependencies
}

// NewAttemptsHandler creates a new attempts handler.
func NewAttemptsHandler(deps AttemptDependencies) *AttemptsHandler {
	return &AttemptsHandler{deps: deps}
}

// attemptRequest mirrors the POST /attempts body.
type attemptRequest struct {
	UserID           string  `json:"user_id"`
	ChallengeID      string  `json:"challenge_id"`
	Answer           string  `json:"answer"`
	TimeTakenSeconds float64 `json:"time_taken_seconds"`
}

func (a attemptRequest) validate() string {
	switch {
	case strings.TrimSpace(a.UserID) == "":
		return "missing user_id"
	case strings.TrimSpace(a.ChallengeID) == "":
		return "missing challenge_id"
	case a.TimeTakenSeconds < 0:
		return "time_taken_seconds must not be negative"
	}
	return ""
}

// attemptResponse mirrors the submission outcome.
type attemptResponse struct {
	IsCorrect      bool  `json:"is_correct"`
	PointsEarned   int   `json:"points_earned"`
	NewTotalPoints int64 `json:"new_total_points"`
	NewRank        *int  `json:"new_rank,omitempty"`
	StreakUpdated  bool  `json:"streak_updated"`
	StreakDays     int   `json:"streak_days"`
}

// HandleSubmitAttempt handles POST /attempts requests.
func (h *AttemptsHandler) HandleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	res, err := h.deps.SubmitAttempt(r.Context(), req.UserID, req.ChallengeID, req.Answer, req.TimeTakenSeconds)
	if err != nil {
		writeFault(w, err)
		return
	}

	resp := attemptResponse{
		IsCorrect:      res.Correct,
		PointsEarned:   res.PointsEarned,
		NewTotalPoints: res.NewTotalPoints,
		StreakUpdated:  res.StreakUpdated,
		StreakDays:     res.StreakDays,
	}
	if res.RankKnown {
		rank := res.NewRank
		resp.NewRank = &rank
	}
	writeJSON(w, http.StatusCreated, resp)
}
