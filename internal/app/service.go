// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "modernc.org/sqlite"             // sqlite driver

	"github.com/quizrush/quizrush/internal/adapters/cache"
	scopequeue "github.com/quizrush/quizrush/internal/adapters/mq/queue"
	workerpool "github.com/quizrush/quizrush/internal/adapters/mq/worker"
	"github.com/quizrush/quizrush/internal/adapters/repository"
	"github.com/quizrush/quizrush/internal/domain/fault"
	"github.com/quizrush/quizrush/internal/domain/model"
	"github.com/quizrush/quizrush/internal/domain/scoring"
	"github.com/quizrush/quizrush/internal/domain/streak"
	"github.com/quizrush/quizrush/pkg/logger"
	"github.com/quizrush/quizrush/pkg/metrics"
)

// Rank materialization modes. The choice fixes the consistency contract for
// a deployment: inline leaves ranks fully consistent before every response,
// deferred keeps writes O(1) and lets ranks lag one recompute interval.
const (
	RankModeInline   = "inline"
	RankModeDeferred = "deferred"
)

// SubmitResult is what an attempt submission reports back to the client.
type SubmitResult struct {
	Correct        bool
	PointsEarned   int
	NewTotalPoints int64
	NewRank        int
	RankKnown      bool
	StreakUpdated  bool
	StreakDays     int
}

// StreakInfo is the read model for a (user, scope) streak.
type StreakInfo struct {
	Current int
	Longest int
	AtRisk  bool
}

// Service wires the ledger, rank materializer, cache, and archiver together.
type Service struct {
	mu sync.RWMutex

	store repository.Store
	board *cache.Scoreboard
	queue *scopequeue.InMemoryQueue
	pool  *workerpool.Pool
	calc  *scoring.Calculator

	// Configuration
	driver            string
	dsn               string
	rankMode          string
	recomputeInterval time.Duration
	queueSize         int
	workerCount       int
	snapshotInterval  time.Duration
	snapshotTypes     []model.SnapshotType
	multipliers       map[int]float64
	streakThreshold   int
	now               func() time.Time

	// State
	started bool
	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		driver:            repository.DriverSQLite,
		dsn:               "file:quizrush.db",
		rankMode:          RankModeInline,
		recomputeInterval: 15 * time.Second,
		queueSize:         1024,
		workerCount:       2,
		snapshotInterval:  24 * time.Hour,
		snapshotTypes:     []model.SnapshotType{model.SnapshotDaily},
		streakThreshold:   0, // calculator default applies
		now:               time.Now,
		stopCh:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens storage, warms the cache, and launches background passes.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scoring engine",
		logger.String("rank_mode", s.rankMode),
		logger.String("driver", s.driver),
	)

	calcOpts := []scoring.Option{}
	if len(s.multipliers) > 0 {
		calcOpts = append(calcOpts, scoring.WithTierMultipliers(s.multipliers))
	}
	if s.streakThreshold > 0 {
		calcOpts = append(calcOpts, scoring.WithStreakBonusThreshold(s.streakThreshold))
	}
	s.calc = scoring.New(calcOpts...)

	if s.store == nil {
		db, err := openDatabase(s.driver, s.dsn)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if err := repository.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
		s.store = repository.NewSQLStore(db, s.driver,
			repository.WithCalculator(s.calc),
			repository.WithInlineRanks(s.rankMode == RankModeInline),
			repository.WithClock(s.now),
		)
	}

	s.board = cache.NewScoreboard()

	// Background goroutines run off a context the service owns, so Stop can
	// end them even when the caller's ctx outlives the service.
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if err := s.warmCache(ctx); err != nil {
		s.logger.Warn(ctx, "cache warmup incomplete", logger.Error(err))
	}

	if s.rankMode == RankModeDeferred {
		s.queue = scopequeue.NewInMemoryQueue(scopequeue.WithCapacity(s.queueSize))
		s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store, s)
		s.pool.Start(runCtx)

		s.wg.Add(1)
		go s.runRecomputeSweep(runCtx)
	}

	if s.snapshotInterval > 0 && len(s.snapshotTypes) > 0 {
		s.wg.Add(1)
		go s.runSnapshotArchiver(runCtx)
	}

	s.started = true
	s.logger.Info(ctx, "scoring engine started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// openDatabase maps the configured dialect to its driver registration.
func openDatabase(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case repository.DriverSQLite:
		return sql.Open("sqlite", dsn)
	case repository.DriverPostgres:
		return sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

// Stop gracefully shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring engine...")

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.wg.Wait()

	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "scoring engine stopped")
}

// warmCache rebuilds every known scope's projection from the primary store.
func (s *Service) warmCache(ctx context.Context) error {
	scopes, err := s.store.Scopes(ctx)
	if err != nil {
		return err
	}
	for _, scope := range scopes {
		if err := s.Refresh(ctx, scope); err != nil {
			return err
		}
	}
	return nil
}

// Refresh rebuilds one scope's sorted-read projection from the store.
// It also serves the worker pool as its cache refresher.
func (s *Service) Refresh(ctx context.Context, scope string) error {
	rows, err := s.store.Standings(ctx, scope)
	if err != nil {
		return err
	}
	cacheRows := make([]cache.Row, len(rows))
	for i, r := range rows {
		cacheRows[i] = cache.Row{UserID: r.UserID, Points: r.Points, UpdatedAt: r.UpdatedAt}
	}
	s.board.Rebuild(ctx, scope, cacheRows)
	return nil
}

// runRecomputeSweep periodically enqueues every known scope so deferred
// ranks never lag more than one interval, even for scopes whose enqueue was
// dropped under backpressure.
func (s *Service) runRecomputeSweep(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.recomputeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			scopes, err := s.store.Scopes(ctx)
			if err != nil {
				s.logger.Warn(ctx, "scope sweep failed", logger.Error(err))
				continue
			}
			for _, scope := range scopes {
				s.queue.Enqueue(ctx, scope)
			}
		}
	}
}

// runSnapshotArchiver periodically archives configured snapshot types.
func (s *Service) runSnapshotArchiver(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			for _, t := range s.snapshotTypes {
				n, err := s.store.CreateSnapshot(ctx, t)
				if err != nil {
					s.logger.Error(ctx, "snapshot failed",
						logger.String("type", string(t)), logger.Error(err))
					continue
				}
				metrics.RecordSnapshot(string(t))
				metrics.RecordSnapshotRows(n)
				s.logger.Info(ctx, "snapshot archived",
					logger.String("type", string(t)), logger.Int("rows", n))
			}
		}
	}
}

// SubmitAttempt validates, scores, and records one submission, then brings
// the projection and (deferred mode) the recompute queue up to date.
func (s *Service) SubmitAttempt(ctx context.Context, userID, challengeID, answer string, timeTakenSeconds float64) (SubmitResult, error) {
	const op = "service.submit_attempt"
	start := time.Now()

	switch {
	case strings.TrimSpace(userID) == "":
		return SubmitResult{}, fault.New(fault.ErrValidation, op, "missing user id")
	case strings.TrimSpace(challengeID) == "":
		return SubmitResult{}, fault.New(fault.ErrValidation, op, "missing challenge id")
	case timeTakenSeconds < 0:
		return SubmitResult{}, fault.New(fault.ErrValidation, op, "negative time taken")
	}

	res, err := s.store.RecordAttempt(ctx, userID, challengeID, answer, timeTakenSeconds)
	if err != nil {
		metrics.RecordAttemptRejected(fault.Code(err))
		return SubmitResult{}, err
	}

	metrics.RecordAttempt()
	metrics.RecordAttemptLatency(float64(time.Since(start).Milliseconds()))
	if s.rankMode == RankModeInline {
		metrics.RecordRankRecompute("inline")
	}

	// Best-effort mirror into the disposable projection; the store's
	// materialized ranks stay authoritative either way.
	now := s.now()
	s.board.Update(ctx, model.ScopeGlobal, userID, res.NewTotalPoints, now)
	s.board.Update(ctx, res.CategoryID, userID, res.NewCategoryPoints, now)
	metrics.UpdateParticipants(s.board.Count(ctx, model.ScopeGlobal))

	if s.rankMode == RankModeDeferred {
		s.queue.Enqueue(ctx, res.CategoryID)
		s.queue.Enqueue(ctx, model.ScopeGlobal)
	}

	return SubmitResult{
		Correct:        res.Correct,
		PointsEarned:   res.PointsEarned,
		NewTotalPoints: res.NewTotalPoints,
		NewRank:        res.NewRank,
		RankKnown:      res.RankKnown,
		StreakUpdated:  res.StreakUpdated,
		StreakDays:     res.StreakDays,
	}, nil
}

// PutChallenge stores a catalog-provided challenge record after shape checks.
// Content validation stays with the catalog.
func (s *Service) PutChallenge(ctx context.Context, ch model.Challenge) error {
	const op = "service.put_challenge"
	switch {
	case strings.TrimSpace(ch.ID) == "":
		return fault.New(fault.ErrValidation, op, "missing challenge id")
	case strings.TrimSpace(ch.CategoryID) == "":
		return fault.New(fault.ErrValidation, op, "missing category id")
	case ch.BasePoints <= 0:
		return fault.New(fault.ErrValidation, op, "base points must be positive")
	case ch.DifficultyTier < 1 || ch.DifficultyTier > 5:
		return fault.New(fault.ErrValidation, op, "difficulty tier out of range")
	case ch.TimeLimitSeconds <= 0:
		return fault.New(fault.ErrValidation, op, "time limit must be positive")
	case strings.TrimSpace(ch.CorrectAnswerHash) == "":
		return fault.New(fault.ErrValidation, op, "missing correct answer hash")
	}
	return s.store.PutChallenge(ctx, ch)
}

// Leaderboard returns the windowed view over the materialized ranking.
func (s *Service) Leaderboard(ctx context.Context, scope string, window model.Window, limit int) ([]model.Entry, int, error) {
	const op = "service.leaderboard"
	if strings.TrimSpace(scope) == "" {
		scope = model.ScopeGlobal
	}
	if !window.Valid() {
		return nil, 0, fault.New(fault.ErrValidation, op, "unknown window")
	}
	if limit < 1 {
		return nil, 0, fault.New(fault.ErrValidation, op, "limit must be positive")
	}
	return s.store.Leaderboard(ctx, scope, window, limit)
}

// UserRank returns the user's materialized rank in a scope.
func (s *Service) UserRank(ctx context.Context, scope, userID string) (model.Entry, error) {
	if strings.TrimSpace(scope) == "" {
		scope = model.ScopeGlobal
	}
	return s.store.UserRank(ctx, scope, userID)
}

// Streak reports the self-healed streak state for (user, scope): a lapsed
// streak reads as zero even though no write has run.
func (s *Service) Streak(ctx context.Context, userID, scope string) (StreakInfo, error) {
	if strings.TrimSpace(scope) == "" {
		scope = model.ScopeGlobal
	}
	state, err := s.store.Streak(ctx, userID, scope)
	if err != nil {
		return StreakInfo{}, err
	}
	now := s.now()
	healed := streak.Effective(state, now)
	return StreakInfo{
		Current: healed.Current,
		Longest: healed.Longest,
		AtRisk:  streak.AtRisk(state, now),
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"rankMode":    s.rankMode,
		"workerCount": s.workerCount,
	}
	if s.started {
		stats["participants"] = s.board.Count(ctx, model.ScopeGlobal)
		stats["cachedScopes"] = len(s.board.Scopes(ctx))
		if leaders, err := s.board.TopN(ctx, model.ScopeGlobal, 3); err == nil && len(leaders) > 0 {
			stats["leaders"] = leaders
		}
		if s.queue != nil {
			stats["queueLength"] = s.queue.Len(ctx)
		}
	}
	return stats
}
