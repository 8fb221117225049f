package service

import (
	"time"

	"github.com/quizrush/quizrush/internal/adapters/repository"
	"github.com/quizrush/quizrush/internal/domain/model"
	"github.com/quizrush/quizrush/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDatabase sets the storage dialect and DSN.
func WithDatabase(driver, dsn string) Option {
	return func(s *Service) {
		if driver != "" {
			s.driver = driver
		}
		if dsn != "" {
			s.dsn = dsn
		}
	}
}

// WithStore injects an already-built store, bypassing database setup.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithRankMode selects inline or deferred rank materialization.
func WithRankMode(mode string) Option {
	return func(s *Service) {
		if mode == RankModeInline || mode == RankModeDeferred {
			s.rankMode = mode
		}
	}
}

// WithRecomputeInterval sets the deferred-mode sweep interval.
func WithRecomputeInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.recomputeInterval = d
		}
	}
}

// WithQueueSize bounds the recompute queue.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithSnapshotSchedule sets the archiver interval and snapshot types.
// A zero interval disables the archiver.
func WithSnapshotSchedule(interval time.Duration, types []model.SnapshotType) Option {
	return func(s *Service) {
		s.snapshotInterval = interval
		if len(types) > 0 {
			s.snapshotTypes = types
		}
	}
}

// WithTierMultipliers overrides the scoring multiplier table.
func WithTierMultipliers(multipliers map[int]float64) Option {
	return func(s *Service) {
		s.multipliers = multipliers
	}
}

// WithStreakBonusThreshold sets the streak length activating the bonus.
func WithStreakBonusThreshold(days int) Option {
	return func(s *Service) {
		s.streakThreshold = days
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source, used by streak tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
