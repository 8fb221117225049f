package repository

import (
	"context"
	"database/sql"
)

// Schema is portable across the sqlite and postgres dialects in use: TEXT
// ids, TIMESTAMP instants, and a UNIQUE constraint enforcing at most one
// attempt per (user, challenge). The constraint, not an application check,
// is what makes duplicate submissions safe across processes.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS challenges (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL,
		base_points INTEGER NOT NULL,
		difficulty_tier INTEGER NOT NULL,
		time_limit_seconds REAL NOT NULL,
		correct_answer_hash TEXT NOT NULL,
		active_until TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		total_points BIGINT NOT NULL DEFAULT 0,
		global_rank INTEGER,
		last_activity TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS attempts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		challenge_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		is_correct BOOLEAN NOT NULL,
		points_earned INTEGER NOT NULL,
		answer_hash TEXT NOT NULL,
		time_taken_seconds REAL NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, challenge_id)
	)`,
	`CREATE TABLE IF NOT EXISTS category_rankings (
		user_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		points BIGINT NOT NULL DEFAULT 0,
		rank INTEGER,
		mastery_percentage REAL NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		correct INTEGER NOT NULL DEFAULT 0,
		streak_days INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_activity TIMESTAMP,
		updated_at TIMESTAMP,
		PRIMARY KEY (user_id, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS streak_states (
		user_id TEXT NOT NULL,
		scope TEXT NOT NULL,
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_activity_date TEXT NOT NULL,
		PRIMARY KEY (user_id, scope)
	)`,
	`CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		scope TEXT NOT NULL,
		points BIGINT NOT NULL,
		rank INTEGER,
		snapshot_type TEXT NOT NULL,
		snapshot_date TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attempts_user ON attempts (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_category_rankings_category ON category_rankings (category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_scope ON leaderboard_snapshots (scope, snapshot_type)`,
}

// Migrate creates the schema when missing. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
