// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	app "github.com/quizrush/quizrush/internal/app"
	"github.com/quizrush/quizrush/internal/domain/fault"
	"github.com/quizrush/quizrush/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SubmitAttempt(ctx context.Context, userID, challengeID, answer string, timeTakenSeconds float64) (app.SubmitResult, error)
	PutChallenge(ctx context.Context, ch model.Challenge) error
	Leaderboard(ctx context.Context, scope string, window model.Window, limit int) ([]model.Entry, int, error)
	UserRank(ctx context.Context, scope, userID string) (model.Entry, error)
	Streak(ctx context.Context, userID, scope string) (app.StreakInfo, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	attemptsHandler    *AttemptsHandler
	challengesHandler  *ChallengesHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	streakHandler      *StreakHandler
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		attemptsHandler:    NewAttemptsHandler(deps),
		challengesHandler:  NewChallengesHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		rankHandler:        NewRankHandler(deps),
		streakHandler:      NewStreakHandler(deps),
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
	}
}

// Router builds the chi router with middleware and all routes attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Method(http.MethodGet, "/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Method(http.MethodGet, "/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Method(http.MethodPost, "/attempts", MetricsMiddleware(s.attemptsHandler.HandleSubmitAttempt, "attempts"))
	r.Method(http.MethodPost, "/challenges", MetricsMiddleware(s.challengesHandler.HandlePutChallenge, "challenges"))
	r.Method(http.MethodGet, "/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	r.Method(http.MethodGet, "/rank/{userID}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	r.Method(http.MethodGet, "/streak/{userID}", MetricsMiddleware(s.streakHandler.HandleGetStreak, "streak"))
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeFault renders an engine error as {code, message} with the HTTP status
// implied by its category. Clients branch on the code, never on the text.
func writeFault(w http.ResponseWriter, err error) {
	code := fault.Code(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, fault.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, fault.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fault.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, fault.ErrExpired):
		status = http.StatusGone
	case errors.Is(err, fault.ErrTransient):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: "validation", Message: msg})
}
