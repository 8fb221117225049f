// Package scoring computes point deltas from challenge outcomes.
package scoring

import (
	"math"

	"github.com/quizrush/quizrush/internal/domain/fault"
)

// Default scoring configuration constants.
const (
	minTier = 1
	maxTier = 5

	wrongAnswerPenalty = 0.3

	// A correct answer in under half the time limit earns the speed bonus.
	speedBonusFactor   = 1.2
	speedBonusFraction = 0.5

	// An active streak of at least the threshold earns the streak bonus.
	streakBonusFactor      = 1.15
	defaultStreakThreshold = 7
)

// defaultMultipliers maps difficulty tiers to point multipliers.
func defaultMultipliers() map[int]float64 {
	return map[int]float64{1: 1.0, 2: 1.5, 3: 2.0, 4: 3.0, 5: 5.0}
}

// Input carries the challenge outcome fields needed to compute a delta.
type Input struct {
	BasePoints       int
	Tier             int
	Correct          bool
	TimeTakenSeconds float64
	TimeLimitSeconds float64
	CurrentStreak    int
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithTierMultipliers overrides the per-tier point multipliers. Tiers outside
// the supported range are ignored.
func WithTierMultipliers(multipliers map[int]float64) Option {
	return func(c *Calculator) {
		for tier, m := range multipliers {
			if tier >= minTier && tier <= maxTier && m > 0 {
				c.multipliers[tier] = m
			}
		}
	}
}

// WithStreakBonusThreshold sets the streak length that activates the bonus.
func WithStreakBonusThreshold(days int) Option {
	return func(c *Calculator) {
		if days > 0 {
			c.streakThreshold = days
		}
	}
}

// Calculator computes signed point deltas. It is pure and safe for
// concurrent use once constructed.
type Calculator struct {
	multipliers     map[int]float64
	streakThreshold int
}

// New constructs a Calculator with default multipliers and options applied.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		multipliers:     defaultMultipliers(),
		streakThreshold: defaultStreakThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Score returns the signed point delta for one outcome.
//
// Wrong answers cost a fixed fraction of the base points at every tier.
// Correct answers earn base points scaled by the tier multiplier, the speed
// bonus, and the streak bonus.
func (c *Calculator) Score(in Input) (int, error) {
	const op = "scoring.score"

	mult, ok := c.multipliers[in.Tier]
	if !ok {
		return 0, fault.New(fault.ErrValidation, op, "difficulty tier out of range")
	}

	if !in.Correct {
		return -int(math.Round(float64(in.BasePoints) * wrongAnswerPenalty)), nil
	}

	delta := float64(in.BasePoints) * mult
	if in.TimeLimitSeconds > 0 && in.TimeTakenSeconds < speedBonusFraction*in.TimeLimitSeconds {
		delta *= speedBonusFactor
	}
	if in.CurrentStreak >= c.streakThreshold {
		delta *= streakBonusFactor
	}
	return int(math.Round(delta)), nil
}
