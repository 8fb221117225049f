// Package model contains domain models passed between layers.
package model

import "time"

// ScopeGlobal is the ranking scope spanning every category.
const ScopeGlobal = "global"

// Challenge is a catalog-provided record the engine stores opaquely.
// Only the hash of the correct answer ever reaches the engine.
type Challenge struct {
	ID                string
	CategoryID        string
	BasePoints        int
	DifficultyTier    int // 1 through 5
	TimeLimitSeconds  float64
	CorrectAnswerHash string
	ActiveUntil       time.Time
}

// Attempt is one ledger row: a user's single recorded submission for a
// challenge. At most one exists per (UserID, ChallengeID).
type Attempt struct {
	ID               string
	UserID           string
	ChallengeID      string
	CategoryID       string
	IsCorrect        bool
	PointsEarned     int // signed; wrong answers record a negative delta
	AnswerHash       string
	TimeTakenSeconds float64
	CreatedAt        time.Time
}

// CategoryRanking is a user's standing within one category.
type CategoryRanking struct {
	UserID            string
	CategoryID        string
	Points            int64
	Rank              int
	MasteryPercentage float64
	Completed         int
	Correct           int
	StreakDays        int
	LongestStreak     int
	LastActivity      time.Time
	UpdatedAt         time.Time
}

// StreakState is the stored daily-engagement counter for a (user, scope)
// pair. LastActivityDate is a UTC calendar day, not an instant.
type StreakState struct {
	UserID           string
	Scope            string
	Current          int
	Longest          int
	LastActivityDate time.Time
}

// Entry is one leaderboard row.
type Entry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
}

// SnapshotType names an archival cadence.
type SnapshotType string

// Supported snapshot cadences. The all-time cadence archives every
// participant regardless of recent activity.
const (
	SnapshotDaily   SnapshotType = "daily"
	SnapshotWeekly  SnapshotType = "weekly"
	SnapshotMonthly SnapshotType = "monthly"
	SnapshotAllTime SnapshotType = "all_time"
)

// Valid reports whether t names a supported cadence.
func (t SnapshotType) Valid() bool {
	switch t {
	case SnapshotDaily, SnapshotWeekly, SnapshotMonthly, SnapshotAllTime:
		return true
	}
	return false
}

// Window names a leaderboard activity filter.
type Window string

// Supported leaderboard windows.
const (
	WindowDaily   Window = "daily"
	WindowWeekly  Window = "weekly"
	WindowMonthly Window = "monthly"
	WindowAllTime Window = "all_time"
)

// Valid reports whether w names a supported window.
func (w Window) Valid() bool {
	switch w {
	case WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime:
		return true
	}
	return false
}

// Cutoff returns the earliest last-activity instant admitted by the window
// and whether the window filters at all. The all-time window admits
// everyone.
func (w Window) Cutoff(now time.Time) (time.Time, bool) {
	switch w {
	case WindowDaily:
		return now.AddDate(0, 0, -1), true
	case WindowWeekly:
		return now.AddDate(0, 0, -7), true
	case WindowMonthly:
		return now.AddDate(0, 0, -30), true
	default:
		return time.Time{}, false
	}
}
