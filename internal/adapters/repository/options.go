package repository

import (
	"time"

	"github.com/quizrush/quizrush/internal/domain/scoring"
)

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithCalculator sets the point calculator used inside the attempt
// transaction.
func WithCalculator(calc *scoring.Calculator) Option {
	return func(s *SQLStore) {
		if calc != nil {
			s.calc = calc
		}
	}
}

// WithInlineRanks selects the rank materialization discipline: true runs the
// full recomputation inside every attempt transaction, false leaves it to
// the deferred out-of-band pass.
func WithInlineRanks(inline bool) Option {
	return func(s *SQLStore) {
		s.inlineRanks = inline
	}
}

// WithClock overrides the time source. Streak transitions are calendar-day
// comparisons, so tests inject fixed days here.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		if now != nil {
			s.now = now
		}
	}
}
