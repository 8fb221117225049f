package scoring_test

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/quizrush/quizrush/internal/domain/fault"
	"github.com/quizrush/quizrush/internal/domain/scoring"
)

func TestCalculatorTierMultipliers(t *testing.T) {
	convey.Convey("Given a calculator with default multipliers", t, func() {
		calc := scoring.New()

		// No speed bonus (slow answer) and no streak bonus (short streak),
		// so the delta is base times the tier multiplier alone.
		base := func(tier int) scoring.Input {
			return scoring.Input{
				BasePoints:       100,
				Tier:             tier,
				Correct:          true,
				TimeTakenSeconds: 9,
				TimeLimitSeconds: 10,
				CurrentStreak:    1,
			}
		}

		convey.Convey("When scoring a correct answer at each tier", func() {
			expected := map[int]int{1: 100, 2: 150, 3: 200, 4: 300, 5: 500}
			for tier, want := range expected {
				got, err := calc.Score(base(tier))
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, want)
			}
		})

		convey.Convey("When the tier is outside the supported range", func() {
			for _, tier := range []int{0, 6, -1} {
				_, err := calc.Score(base(tier))
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, fault.ErrValidation), convey.ShouldBeTrue)
			}
		})
	})
}

func TestCalculatorWrongAnswers(t *testing.T) {
	convey.Convey("Given a calculator", t, func() {
		calc := scoring.New()

		convey.Convey("When the answer is wrong", func() {
			in := scoring.Input{
				BasePoints:       100,
				Tier:             3,
				Correct:          false,
				TimeTakenSeconds: 1,
				TimeLimitSeconds: 10,
				CurrentStreak:    30,
			}
			got, err := calc.Score(in)

			convey.Convey("Then the penalty ignores tier, speed, and streak", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, -30)
			})
		})

		convey.Convey("When the base points do not divide evenly", func() {
			got, err := calc.Score(scoring.Input{BasePoints: 75, Tier: 1, Correct: false})

			convey.Convey("Then the penalty rounds half away from zero", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, -23) // round(75 * 0.3) = round(22.5)
			})
		})
	})
}

func TestCalculatorBonuses(t *testing.T) {
	convey.Convey("Given a calculator with default bonuses", t, func() {
		calc := scoring.New()

		convey.Convey("When answering in under half the time limit", func() {
			got, err := calc.Score(scoring.Input{
				BasePoints: 100, Tier: 1, Correct: true,
				TimeTakenSeconds: 4, TimeLimitSeconds: 10, CurrentStreak: 1,
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, 120)
		})

		convey.Convey("When answering at exactly half the time limit", func() {
			got, err := calc.Score(scoring.Input{
				BasePoints: 100, Tier: 1, Correct: true,
				TimeTakenSeconds: 5, TimeLimitSeconds: 10, CurrentStreak: 1,
			})

			convey.Convey("Then the speed bonus does not apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When the streak has reached the bonus threshold", func() {
			got, err := calc.Score(scoring.Input{
				BasePoints: 100, Tier: 1, Correct: true,
				TimeTakenSeconds: 9, TimeLimitSeconds: 10, CurrentStreak: 7,
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, 115)
		})

		convey.Convey("When the streak is one short of the threshold", func() {
			got, err := calc.Score(scoring.Input{
				BasePoints: 100, Tier: 1, Correct: true,
				TimeTakenSeconds: 9, TimeLimitSeconds: 10, CurrentStreak: 6,
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, 100)
		})

		convey.Convey("When both bonuses apply they compound", func() {
			got, err := calc.Score(scoring.Input{
				BasePoints: 100, Tier: 1, Correct: true,
				TimeTakenSeconds: 2, TimeLimitSeconds: 10, CurrentStreak: 10,
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, 138) // 100 * 1.2 * 1.15
		})

		convey.Convey("When every multiplier stacks on the top tier", func() {
			got, err := calc.Score(scoring.Input{
				BasePoints: 100, Tier: 5, Correct: true,
				TimeTakenSeconds: 2, TimeLimitSeconds: 10, CurrentStreak: 10,
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, 690) // 100 * 5.0 * 1.2 * 1.15
		})
	})
}

func TestCalculatorOptions(t *testing.T) {
	convey.Convey("Given a calculator with overridden configuration", t, func() {
		calc := scoring.New(
			scoring.WithTierMultipliers(map[int]float64{2: 4.0, 9: 100.0}),
			scoring.WithStreakBonusThreshold(3),
		)

		convey.Convey("When scoring with the overridden tier", func() {
			got, err := calc.Score(scoring.Input{
				BasePoints: 50, Tier: 2, Correct: true,
				TimeTakenSeconds: 9, TimeLimitSeconds: 10,
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, 200)
		})

		convey.Convey("When scoring with an out-of-range override tier", func() {
			_, err := calc.Score(scoring.Input{BasePoints: 50, Tier: 9, Correct: true})

			convey.Convey("Then the override was ignored and the tier rejects", func() {
				convey.So(errors.Is(err, fault.ErrValidation), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the lowered streak threshold is met", func() {
			got, err := calc.Score(scoring.Input{
				BasePoints: 100, Tier: 1, Correct: true,
				TimeTakenSeconds: 9, TimeLimitSeconds: 10, CurrentStreak: 3,
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, 115)
		})
	})
}
