package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/quizrush/quizrush/internal/domain/fault"
	"github.com/quizrush/quizrush/internal/domain/model"
)

// RecomputeRanks reassigns dense ordinals 1..N for the scope in its own
// transaction. On any failure the transaction rolls back and the previous
// ranking stays in effect.
func (s *SQLStore) RecomputeRanks(ctx context.Context, scope string) (int, error) {
	const op = "repository.recompute_ranks"
	tx, err := s.db.BeginTx(ctx, s.txOptions())
	if err != nil {
		return 0, fault.Wrap(fault.ErrTransient, op, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	n, err := s.recomputeScope(ctx, tx, scope)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fault.Wrap(fault.ErrTransient, op, err)
	}
	return n, nil
}

// recomputeScope is the full recomputation shared by inline and deferred
// modes: read the scope's standing in deterministic order (points desc, then
// earliest updated, then user id) and write back ordinals 1..N.
func (s *SQLStore) recomputeScope(ctx context.Context, tx *sql.Tx, scope string) (int, error) {
	const op = "repository.recompute_scope"

	var (
		rows *sql.Rows
		err  error
	)
	if scope == model.ScopeGlobal {
		rows, err = tx.QueryContext(ctx, `SELECT id FROM users
			ORDER BY total_points DESC, updated_at ASC, id ASC`)
	} else {
		rows, err = tx.QueryContext(ctx, `SELECT user_id FROM category_rankings
			WHERE category_id=$1
			ORDER BY points DESC, updated_at ASC, user_id ASC`, scope)
	}
	if err != nil {
		return 0, fault.Wrap(fault.ErrTransient, op, err)
	}

	ordered := make([]string, 0, 64)
	seen := make(map[string]struct{}, 64)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fault.Wrap(fault.ErrTransient, op, err)
		}
		if _, dup := seen[id]; dup {
			rows.Close()
			return 0, fault.New(fault.ErrInvariant, op, "duplicate participant in rank ordering")
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fault.Wrap(fault.ErrTransient, op, err)
	}
	rows.Close()

	for i, id := range ordered {
		rank := i + 1
		if scope == model.ScopeGlobal {
			_, err = tx.ExecContext(ctx, `UPDATE users SET global_rank=$1 WHERE id=$2`, rank, id)
		} else {
			_, err = tx.ExecContext(ctx, `UPDATE category_rankings SET rank=$1
				WHERE user_id=$2 AND category_id=$3`, rank, id, scope)
		}
		if err != nil {
			return 0, fault.Wrap(fault.ErrTransient, op, err)
		}
	}
	return len(ordered), nil
}

// Leaderboard serves the materialized ranking filtered by the window's
// activity cutoff. The rank numbers are all-time ordinals among users active
// in the window, not ranks recomputed from in-window deltas.
func (s *SQLStore) Leaderboard(ctx context.Context, scope string, window model.Window, limit int) ([]model.Entry, int, error) {
	const op = "repository.leaderboard"

	cutoff, filtered := window.Cutoff(s.now())
	if !filtered {
		// Zero time admits every row through the same query shape.
		cutoff = time.Time{}
	}

	var (
		rows *sql.Rows
		err  error
	)
	if scope == model.ScopeGlobal {
		rows, err = s.db.QueryContext(ctx, `SELECT id, total_points, global_rank FROM users
			WHERE global_rank IS NOT NULL AND last_activity >= $1
			ORDER BY global_rank ASC LIMIT $2`, cutoff, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT user_id, points, rank FROM category_rankings
			WHERE category_id=$1 AND rank IS NOT NULL AND last_activity >= $2
			ORDER BY rank ASC LIMIT $3`, scope, cutoff, limit)
	}
	if err != nil {
		return nil, 0, fault.Wrap(fault.ErrTransient, op, err)
	}
	defer rows.Close()

	entries := make([]model.Entry, 0, limit)
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.UserID, &e.Points, &e.Rank); err != nil {
			return nil, 0, fault.Wrap(fault.ErrTransient, op, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fault.Wrap(fault.ErrTransient, op, err)
	}

	var total int
	if scope == model.ScopeGlobal {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users
			WHERE global_rank IS NOT NULL AND last_activity >= $1`, cutoff).Scan(&total)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM category_rankings
			WHERE category_id=$1 AND rank IS NOT NULL AND last_activity >= $2`, scope, cutoff).Scan(&total)
	}
	if err != nil {
		return nil, 0, fault.Wrap(fault.ErrTransient, op, err)
	}
	return entries, total, nil
}

// UserRank returns the user's materialized rank in the scope. Users without
// a rank (never attempted, or awaiting the first deferred pass) read as
// not found.
func (s *SQLStore) UserRank(ctx context.Context, scope, userID string) (model.Entry, error) {
	const op = "repository.user_rank"

	var (
		points int64
		rank   sql.NullInt64
		err    error
	)
	if scope == model.ScopeGlobal {
		err = s.db.QueryRowContext(ctx, `SELECT total_points, global_rank FROM users WHERE id=$1`, userID).
			Scan(&points, &rank)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT points, rank FROM category_rankings
			WHERE user_id=$1 AND category_id=$2`, userID, scope).
			Scan(&points, &rank)
	}
	if err != nil {
		return model.Entry{}, wrapDB(op, err)
	}
	if !rank.Valid {
		return model.Entry{}, fault.New(fault.ErrNotFound, op, "user not ranked in scope")
	}
	return model.Entry{Rank: int(rank.Int64), UserID: userID, Points: points}, nil
}

// snapshotCutoff maps a snapshot type to its activity filter. The all-time
// cadence admits every participant.
func snapshotCutoff(t model.SnapshotType, now time.Time) (time.Time, bool) {
	switch t {
	case model.SnapshotDaily:
		return now.AddDate(0, 0, -1), true
	case model.SnapshotWeekly:
		return now.AddDate(0, 0, -7), true
	case model.SnapshotMonthly:
		return now.AddDate(0, 0, -30), true
	default:
		return time.Time{}, false
	}
}

// CreateSnapshot copies current standings into the append-only snapshot
// table: the global scope from user totals and every category scope from its
// rankings. Snapshot rows are never mutated afterward.
func (s *SQLStore) CreateSnapshot(ctx context.Context, snapshotType model.SnapshotType) (int, error) {
	const op = "repository.create_snapshot"
	if !snapshotType.Valid() {
		return 0, fault.New(fault.ErrValidation, op, "unknown snapshot type")
	}
	now := s.now()
	cutoff, filtered := snapshotCutoff(snapshotType, now)
	if !filtered {
		cutoff = time.Time{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fault.Wrap(fault.ErrTransient, op, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	type snapRow struct {
		userID string
		scope  string
		points int64
		rank   sql.NullInt64
	}
	collect := func(fixedScope, query string, args ...any) ([]snapRow, error) {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		var out []snapRow
		for rows.Next() {
			var r snapRow
			if fixedScope != "" {
				r.scope = fixedScope
				err = rows.Scan(&r.userID, &r.points, &r.rank)
			} else {
				err = rows.Scan(&r.userID, &r.scope, &r.points, &r.rank)
			}
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, rows.Err()
	}

	global, err := collect(model.ScopeGlobal, `SELECT id, total_points, global_rank FROM users
		WHERE last_activity >= $1`, cutoff)
	if err != nil {
		return 0, fault.Wrap(fault.ErrTransient, op, err)
	}
	categories, err := collect("", `SELECT user_id, category_id, points, rank FROM category_rankings
		WHERE last_activity >= $1`, cutoff)
	if err != nil {
		return 0, fault.Wrap(fault.ErrTransient, op, err)
	}

	written := 0
	for _, r := range append(global, categories...) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO leaderboard_snapshots
			(id, user_id, scope, points, rank, snapshot_type, snapshot_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			uuid.NewString(), r.userID, r.scope, r.points, r.rank, string(snapshotType), now); err != nil {
			return 0, fault.Wrap(fault.ErrTransient, op, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fault.Wrap(fault.ErrTransient, op, err)
	}
	return written, nil
}

// Scopes lists every scope with at least one participant.
func (s *SQLStore) Scopes(ctx context.Context) ([]string, error) {
	const op = "repository.scopes"
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category_id FROM category_rankings ORDER BY category_id`)
	if err != nil {
		return nil, fault.Wrap(fault.ErrTransient, op, err)
	}
	defer rows.Close()

	scopes := []string{model.ScopeGlobal}
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, fault.Wrap(fault.ErrTransient, op, err)
		}
		scopes = append(scopes, scope)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(fault.ErrTransient, op, err)
	}
	return scopes, nil
}

// Standings returns the scope's full standing in rank order for cache
// rebuilds.
func (s *SQLStore) Standings(ctx context.Context, scope string) ([]StandingRow, error) {
	const op = "repository.standings"

	var (
		rows *sql.Rows
		err  error
	)
	if scope == model.ScopeGlobal {
		rows, err = s.db.QueryContext(ctx, `SELECT id, total_points, updated_at FROM users
			ORDER BY total_points DESC, updated_at ASC, id ASC`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT user_id, points, updated_at FROM category_rankings
			WHERE category_id=$1
			ORDER BY points DESC, updated_at ASC, user_id ASC`, scope)
	}
	if err != nil {
		return nil, fault.Wrap(fault.ErrTransient, op, err)
	}
	defer rows.Close()

	var out []StandingRow
	for rows.Next() {
		var r StandingRow
		if err := rows.Scan(&r.UserID, &r.Points, &r.UpdatedAt); err != nil {
			return nil, fault.Wrap(fault.ErrTransient, op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(fault.ErrTransient, op, err)
	}
	return out, nil
}
