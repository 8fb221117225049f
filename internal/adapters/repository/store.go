// Package repository implements the durable transactional store backing the
// attempt ledger, rankings, streaks, and snapshot archive.
package repository

import (
	"context"
	"time"

	"github.com/quizrush/quizrush/internal/domain/model"
)

// AttemptResult is what the ledger reports after a successful submission.
type AttemptResult struct {
	AttemptID      string
	Correct        bool
	PointsEarned   int
	NewTotalPoints int64
	// NewRank is populated only when ranks were recomputed inline; in
	// deferred mode RankKnown is false until the next recompute pass.
	NewRank       int
	RankKnown     bool
	StreakUpdated bool
	StreakDays    int
	CategoryID    string
	// NewCategoryPoints is the user's updated point total within the
	// challenge's category, for mirroring into the sorted-read cache.
	NewCategoryPoints int64
}

// StandingRow is one scope participant as fed to the sorted-read cache.
type StandingRow struct {
	UserID    string
	Points    int64
	UpdatedAt time.Time
}

// Store provides transactional access to the engine's persistent state.
type Store interface {
	// PutChallenge stores or refreshes a catalog-provided challenge record.
	PutChallenge(ctx context.Context, ch model.Challenge) error

	// GetChallenge returns a challenge by id, or a not-found fault.
	GetChallenge(ctx context.Context, id string) (model.Challenge, error)

	// RecordAttempt scores and records one submission in a single
	// transaction. Exactly one attempt per (user, challenge) ever commits;
	// the loser of a duplicate race observes a conflict fault.
	RecordAttempt(ctx context.Context, userID, challengeID, answer string, timeTakenSeconds float64) (AttemptResult, error)

	// RecomputeRanks reassigns dense ordinal ranks 1..N for the scope and
	// returns N. Ranks are never left partially updated.
	RecomputeRanks(ctx context.Context, scope string) (int, error)

	// Leaderboard returns up to limit ranked entries for the scope filtered
	// by the window's activity cutoff, plus the filtered population count.
	Leaderboard(ctx context.Context, scope string, window model.Window, limit int) ([]model.Entry, int, error)

	// UserRank returns the user's materialized rank in the scope, or a
	// not-found fault when the user is unranked there.
	UserRank(ctx context.Context, scope, userID string) (model.Entry, error)

	// Streak returns the stored streak state for (user, scope). A missing
	// row reads as the zero state, not an error.
	Streak(ctx context.Context, userID, scope string) (model.StreakState, error)

	// CreateSnapshot archives current (user, scope, points, rank) rows
	// filtered by the snapshot type's activity cutoff. Returns rows written.
	CreateSnapshot(ctx context.Context, snapshotType model.SnapshotType) (int, error)

	// Scopes lists every ranking scope with at least one participant,
	// the global scope included.
	Scopes(ctx context.Context) ([]string, error)

	// Standings returns the full (user, points) standing for a scope in
	// rank order, used to rebuild the sorted-read cache.
	Standings(ctx context.Context, scope string) ([]StandingRow, error)

	Close() error
}
