package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quizrush/quizrush/internal/domain/answers"
	"github.com/quizrush/quizrush/internal/domain/fault"
	"github.com/quizrush/quizrush/internal/domain/model"
	"github.com/quizrush/quizrush/internal/domain/scoring"
	"github.com/quizrush/quizrush/internal/domain/streak"
)

// Supported SQL dialects.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const dateLayout = "2006-01-02"

// SQLStore implements Store on database/sql. The same statements run on
// sqlite and postgres; dialect differences are limited to row locking.
type SQLStore struct {
	db          *sql.DB
	driver      string
	calc        *scoring.Calculator
	inlineRanks bool
	now         func() time.Time
}

// NewSQLStore constructs a store over an open database handle.
func NewSQLStore(db *sql.DB, driver string, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:          db,
		driver:      driver,
		calc:        scoring.New(),
		inlineRanks: true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// lockSuffix returns the row-lock clause for read-then-write sequences.
// sqlite serializes writers at the transaction level, so no clause is needed
// there; postgres takes an explicit row lock.
func (s *SQLStore) lockSuffix() string {
	if s.driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// txOptions requests serializable isolation on postgres. sqlite transactions
// are serializable already and its driver wants the default level.
func (s *SQLStore) txOptions() *sql.TxOptions {
	if s.driver == DriverPostgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

// wrapDB categorizes a driver error: missing rows are not-found, anything
// else is transient and safe for the caller to retry.
func wrapDB(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fault.Wrap(fault.ErrNotFound, op, err)
	}
	return fault.Wrap(fault.ErrTransient, op, err)
}

// PutChallenge stores or refreshes a catalog record. Re-sent records update
// in place, matching catalog replays.
func (s *SQLStore) PutChallenge(ctx context.Context, ch model.Challenge) error {
	const op = "repository.put_challenge"
	_, err := s.db.ExecContext(ctx, `INSERT INTO challenges
		(id, category_id, base_points, difficulty_tier, time_limit_seconds, correct_answer_hash, active_until)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			category_id=EXCLUDED.category_id,
			base_points=EXCLUDED.base_points,
			difficulty_tier=EXCLUDED.difficulty_tier,
			time_limit_seconds=EXCLUDED.time_limit_seconds,
			correct_answer_hash=EXCLUDED.correct_answer_hash,
			active_until=EXCLUDED.active_until`,
		ch.ID, ch.CategoryID, ch.BasePoints, ch.DifficultyTier,
		ch.TimeLimitSeconds, ch.CorrectAnswerHash, ch.ActiveUntil)
	if err != nil {
		return fault.Wrap(fault.ErrTransient, op, err)
	}
	return nil
}

// GetChallenge returns a challenge by id.
func (s *SQLStore) GetChallenge(ctx context.Context, id string) (model.Challenge, error) {
	const op = "repository.get_challenge"
	return s.getChallenge(ctx, s.db, op, id)
}

// querier abstracts *sql.DB and *sql.Tx for shared read helpers.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) getChallenge(ctx context.Context, q querier, op, id string) (model.Challenge, error) {
	var ch model.Challenge
	err := q.QueryRowContext(ctx, `SELECT id, category_id, base_points, difficulty_tier,
		time_limit_seconds, correct_answer_hash, active_until
		FROM challenges WHERE id=$1`, id).
		Scan(&ch.ID, &ch.CategoryID, &ch.BasePoints, &ch.DifficultyTier,
			&ch.TimeLimitSeconds, &ch.CorrectAnswerHash, &ch.ActiveUntil)
	if err != nil {
		return model.Challenge{}, wrapDB(op, err)
	}
	return ch, nil
}

// RecordAttempt runs the whole submission as one serializable transaction:
// challenge load, streak advance, scoring, the UNIQUE-protected attempt
// insert, point totals, category counters, and (inline mode) the rank
// recomputation for both affected scopes. A failure anywhere rolls all of
// it back; no partial point award is ever visible.
func (s *SQLStore) RecordAttempt(ctx context.Context, userID, challengeID, answer string, timeTakenSeconds float64) (AttemptResult, error) {
	const op = "repository.record_attempt"
	now := s.now()

	tx, err := s.db.BeginTx(ctx, s.txOptions())
	if err != nil {
		return AttemptResult{}, fault.Wrap(fault.ErrTransient, op, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	ch, err := s.getChallenge(ctx, tx, op, challengeID)
	if err != nil {
		return AttemptResult{}, err
	}
	if now.After(ch.ActiveUntil) {
		return AttemptResult{}, fault.New(fault.ErrExpired, op, "challenge past active-until")
	}

	answerHash := answers.Hash(answer)
	correct := answerHash == ch.CorrectAnswerHash

	// Streaks advance under a row lock; two same-day submissions must not
	// both observe "no activity today" and double-increment.
	globalStreak, streakUpdated, err := s.advanceStreak(ctx, tx, userID, model.ScopeGlobal, now)
	if err != nil {
		return AttemptResult{}, fault.Wrap(fault.ErrTransient, op, err)
	}
	categoryStreak, _, err := s.advanceStreak(ctx, tx, userID, ch.CategoryID, now)
	if err != nil {
		return AttemptResult{}, fault.Wrap(fault.ErrTransient, op, err)
	}

	delta, err := s.calc.Score(scoring.Input{
		BasePoints:       ch.BasePoints,
		Tier:             ch.DifficultyTier,
		Correct:          correct,
		TimeTakenSeconds: timeTakenSeconds,
		TimeLimitSeconds: ch.TimeLimitSeconds,
		CurrentStreak:    globalStreak.Current,
	})
	if err != nil {
		return AttemptResult{}, err
	}

	attemptID := uuid.NewString()
	ins, err := tx.ExecContext(ctx, `INSERT INTO attempts
		(id, user_id, challenge_id, category_id, is_correct, points_earned, answer_hash, time_taken_seconds, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (user_id, challenge_id) DO NOTHING`,
		attemptID, userID, challengeID, ch.CategoryID, correct, delta,
		answerHash, timeTakenSeconds, now)
	if err != nil {
		return AttemptResult{}, fault.Wrap(fault.ErrTransient, op, err)
	}
	inserted, err := ins.RowsAffected()
	if err != nil {
		return AttemptResult{}, fault.Wrap(fault.ErrTransient, op, err)
	}
	if inserted == 0 {
		return AttemptResult{}, fault.New(fault.ErrConflict, op, "challenge already attempted")
	}

	if err := s.applyPoints(ctx, tx, userID, ch.CategoryID, delta, correct, categoryStreak, now); err != nil {
		return AttemptResult{}, fault.Wrap(fault.ErrTransient, op, err)
	}

	var newTotal, newCategory int64
	if err := tx.QueryRowContext(ctx, `SELECT total_points FROM users WHERE id=$1`, userID).Scan(&newTotal); err != nil {
		return AttemptResult{}, wrapDB(op, err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT points FROM category_rankings
		WHERE user_id=$1 AND category_id=$2`, userID, ch.CategoryID).Scan(&newCategory); err != nil {
		return AttemptResult{}, wrapDB(op, err)
	}

	result := AttemptResult{
		AttemptID:         attemptID,
		Correct:           correct,
		PointsEarned:      delta,
		NewTotalPoints:    newTotal,
		StreakUpdated:     streakUpdated,
		StreakDays:        globalStreak.Current,
		CategoryID:        ch.CategoryID,
		NewCategoryPoints: newCategory,
	}

	if s.inlineRanks {
		if _, err := s.recomputeScope(ctx, tx, ch.CategoryID); err != nil {
			return AttemptResult{}, err
		}
		if _, err := s.recomputeScope(ctx, tx, model.ScopeGlobal); err != nil {
			return AttemptResult{}, err
		}
		var rank sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT global_rank FROM users WHERE id=$1`, userID).Scan(&rank); err != nil {
			return AttemptResult{}, wrapDB(op, err)
		}
		if rank.Valid {
			result.NewRank = int(rank.Int64)
			result.RankKnown = true
		}
	}

	if err := tx.Commit(); err != nil {
		return AttemptResult{}, fault.Wrap(fault.ErrTransient, op, err)
	}
	return result, nil
}

// applyPoints adds the delta to the user total and the category ranking,
// creating both rows on first contact, and refreshes mastery and streak
// columns.
func (s *SQLStore) applyPoints(ctx context.Context, tx *sql.Tx, userID, categoryID string, delta int, correct bool, categoryStreak model.StreakState, now time.Time) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, total_points, last_activity, updated_at)
		VALUES ($1,0,$2,$2) ON CONFLICT (id) DO NOTHING`, userID, now); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users
		SET total_points = total_points + $1, last_activity=$2, updated_at=$2
		WHERE id=$3`, delta, now, userID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO category_rankings
		(user_id, category_id, points, mastery_percentage, completed, correct, streak_days, longest_streak, last_activity, updated_at)
		VALUES ($1,$2,0,0,0,0,0,0,$3,$3)
		ON CONFLICT (user_id, category_id) DO NOTHING`, userID, categoryID, now); err != nil {
		return err
	}
	correctInc := 0
	if correct {
		correctInc = 1
	}
	if _, err := tx.ExecContext(ctx, `UPDATE category_rankings
		SET points = points + $1,
			completed = completed + 1,
			correct = correct + $2,
			streak_days = $3,
			longest_streak = $4,
			last_activity = $5,
			updated_at = $5
		WHERE user_id=$6 AND category_id=$7`,
		delta, correctInc, categoryStreak.Current, categoryStreak.Longest, now, userID, categoryID); err != nil {
		return err
	}
	// Mastery is correct/completed to two decimals; completed is at least 1
	// here because the update above just incremented it.
	_, err := tx.ExecContext(ctx, `UPDATE category_rankings
		SET mastery_percentage = ROUND(correct * 100.0 / completed, 2)
		WHERE user_id=$1 AND category_id=$2`, userID, categoryID)
	return err
}

// advanceStreak applies today's activity to the (user, scope) streak row
// under the transaction's row lock and persists any change.
func (s *SQLStore) advanceStreak(ctx context.Context, tx *sql.Tx, userID, scope string, now time.Time) (model.StreakState, bool, error) {
	state := model.StreakState{UserID: userID, Scope: scope}
	var lastDate string
	err := tx.QueryRowContext(ctx, `SELECT current_streak, longest_streak, last_activity_date
		FROM streak_states WHERE user_id=$1 AND scope=$2`+s.lockSuffix(), userID, scope).
		Scan(&state.Current, &state.Longest, &lastDate)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// first activity in this scope
	case err != nil:
		return model.StreakState{}, false, err
	default:
		state.LastActivityDate, err = time.Parse(dateLayout, lastDate)
		if err != nil {
			return model.StreakState{}, false, err
		}
	}

	next, changed := streak.Advance(state, now)
	if !changed {
		return next, false, nil
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO streak_states
		(user_id, scope, current_streak, longest_streak, last_activity_date)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id, scope) DO UPDATE SET
			current_streak=EXCLUDED.current_streak,
			longest_streak=EXCLUDED.longest_streak,
			last_activity_date=EXCLUDED.last_activity_date`,
		userID, scope, next.Current, next.Longest, next.LastActivityDate.Format(dateLayout))
	if err != nil {
		return model.StreakState{}, false, err
	}
	return next, true, nil
}

// Streak returns the stored streak row; a missing row is the zero state.
// Self-healing of lapsed streaks happens at the read layer above.
func (s *SQLStore) Streak(ctx context.Context, userID, scope string) (model.StreakState, error) {
	const op = "repository.streak"
	state := model.StreakState{UserID: userID, Scope: scope}
	var lastDate string
	err := s.db.QueryRowContext(ctx, `SELECT current_streak, longest_streak, last_activity_date
		FROM streak_states WHERE user_id=$1 AND scope=$2`, userID, scope).
		Scan(&state.Current, &state.Longest, &lastDate)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return model.StreakState{}, fault.Wrap(fault.ErrTransient, op, err)
	}
	state.LastActivityDate, err = time.Parse(dateLayout, lastDate)
	if err != nil {
		return model.StreakState{}, fault.Wrap(fault.ErrTransient, op, err)
	}
	return state, nil
}
