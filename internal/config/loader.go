package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if QUIZRUSH_CONFIG is set
//  3. env (prefix QUIZRUSH_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("QUIZRUSH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: QUIZRUSH_ADDR, QUIZRUSH_RANK_MODE, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("QUIZRUSH_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "quizrush_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: db_driver must be sqlite or postgres", ErrInvalidConfig)
	}
	switch c.RankMode {
	case "inline", "deferred":
	default:
		return fmt.Errorf("%w: rank_mode must be inline or deferred", ErrInvalidConfig)
	}
	for _, t := range c.SnapshotTypes {
		switch t {
		case "daily", "weekly", "monthly", "all_time":
		default:
			return fmt.Errorf("%w: unknown snapshot type %q", ErrInvalidConfig, t)
		}
	}
	for key := range c.TierMultipliers {
		tier, err := strconv.Atoi(key)
		if err != nil || tier < 1 || tier > 5 {
			return fmt.Errorf("%w: tier multiplier key %q is not a tier in 1..5", ErrInvalidConfig, key)
		}
	}
	return nil
}

// TierMultiplierTable converts the string-keyed override map into the
// int-keyed form the calculator takes. Validate has already vetted the keys.
func (c *Config) TierMultiplierTable() map[int]float64 {
	if len(c.TierMultipliers) == 0 {
		return nil
	}
	out := make(map[int]float64, len(c.TierMultipliers))
	for key, m := range c.TierMultipliers {
		tier, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out[tier] = m
	}
	return out
}
