// Package config defines service configuration structures and loading hooks.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBDriver selects the storage dialect: sqlite or postgres.
	DBDriver string `koanf:"db_driver"`

	// DBDSN is the database connection string.
	DBDSN string `koanf:"db_dsn"`

	// RankMode fixes the materialization discipline: inline recomputes
	// ranks within every attempt transaction, deferred runs an out-of-band
	// pass and lets leaderboards lag by up to one interval.
	RankMode string `koanf:"rank_mode"`

	// RecomputeIntervalSec is the deferred-mode sweep period.
	RecomputeIntervalSec int `koanf:"recompute_interval_sec"`

	// RecomputeQueueSize bounds the deferred recompute queue.
	RecomputeQueueSize int `koanf:"recompute_queue_size"`

	// RecomputeWorkers sets the number of recompute workers.
	RecomputeWorkers int `koanf:"recompute_workers"`

	// SnapshotIntervalSec is the archiver period; 0 disables it.
	SnapshotIntervalSec int `koanf:"snapshot_interval_sec"`

	// SnapshotTypes lists the cadences archived each pass.
	SnapshotTypes []string `koanf:"snapshot_types"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// TierMultipliers overrides point multipliers per difficulty tier,
	// keyed by the tier number.
	TierMultipliers map[string]float64 `koanf:"tier_multipliers"`

	// StreakBonusThreshold is the streak length activating the bonus.
	StreakBonusThreshold int `koanf:"streak_bonus_threshold"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		DBDriver:             "sqlite",
		DBDSN:                "file:quizrush.db",
		RankMode:             "inline",
		RecomputeIntervalSec: 15,
		RecomputeQueueSize:   1024,
		RecomputeWorkers:     2,
		SnapshotIntervalSec:  86_400,
		SnapshotTypes:        []string{"daily"},
		MaxLeaderboardLimit:  100,
		StreakBonusThreshold: 7,
	}
}
