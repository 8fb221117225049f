// Package streak implements the daily-engagement state machine.
//
// Transitions compare "today" against the stored last-activity day; reads
// self-heal so a lapsed streak reports zero without waiting for a write.
package streak

import (
	"time"

	"github.com/quizrush/quizrush/internal/domain/model"
)

// Day truncates t to UTC midnight, the granularity all streak math uses.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Advance applies one day of activity to prior and reports whether anything
// changed. A zero-valued prior means no recorded activity yet.
//
// Same-day activity is a no-op. Consecutive-day activity extends the streak.
// A gap of two or more days resets the current streak to one while the
// longest streak survives.
func Advance(prior model.StreakState, now time.Time) (model.StreakState, bool) {
	today := Day(now)

	if prior.LastActivityDate.IsZero() {
		prior.Current = 1
		prior.Longest = 1
		prior.LastActivityDate = today
		return prior, true
	}

	last := Day(prior.LastActivityDate)
	switch {
	case last.Equal(today):
		return prior, false
	case last.Equal(today.AddDate(0, 0, -1)):
		prior.Current++
		if prior.Current > prior.Longest {
			prior.Longest = prior.Current
		}
	default:
		prior.Current = 1
	}
	prior.LastActivityDate = today
	return prior, true
}

// Effective returns the streak as it must be reported at read time: zero
// whenever the last activity predates yesterday, regardless of the stored
// counter. No write is required to observe a broken streak.
func Effective(state model.StreakState, now time.Time) model.StreakState {
	if state.LastActivityDate.IsZero() {
		state.Current = 0
		return state
	}
	yesterday := Day(now).AddDate(0, 0, -1)
	if Day(state.LastActivityDate).Before(yesterday) {
		state.Current = 0
	}
	return state
}

// AtRisk reports whether the streak survives only until the end of today:
// the last activity was exactly yesterday and today has no attempt yet.
func AtRisk(state model.StreakState, now time.Time) bool {
	if state.LastActivityDate.IsZero() {
		return false
	}
	return Day(state.LastActivityDate).Equal(Day(now).AddDate(0, 0, -1))
}
