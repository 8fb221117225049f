package fault_test

import (
	"errors"
	"io"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/quizrush/quizrush/internal/domain/fault"
)

func TestCategories(t *testing.T) {
	convey.Convey("Given categorized errors", t, func() {
		convey.Convey("When building with New", func() {
			err := fault.New(fault.ErrConflict, "ledger.record", "challenge already attempted")

			convey.So(errors.Is(err, fault.ErrConflict), convey.ShouldBeTrue)
			convey.So(errors.Is(err, fault.ErrNotFound), convey.ShouldBeFalse)
			convey.So(err.Error(), convey.ShouldContainSubstring, "challenge already attempted")
		})

		convey.Convey("When wrapping an underlying cause", func() {
			cause := io.ErrUnexpectedEOF
			err := fault.Wrap(fault.ErrTransient, "store.read", cause)

			convey.Convey("Then both the category and the cause unwrap", func() {
				convey.So(errors.Is(err, fault.ErrTransient), convey.ShouldBeTrue)
				convey.So(errors.Is(err, cause), convey.ShouldBeTrue)
			})
		})
	})
}

func TestCode(t *testing.T) {
	convey.Convey("Given the stable code mapping", t, func() {
		convey.Convey("When the error carries a category", func() {
			convey.So(fault.Code(fault.New(fault.ErrValidation, "op", "m")), convey.ShouldEqual, "validation")
			convey.So(fault.Code(fault.New(fault.ErrNotFound, "op", "m")), convey.ShouldEqual, "not_found")
			convey.So(fault.Code(fault.New(fault.ErrConflict, "op", "m")), convey.ShouldEqual, "conflict")
			convey.So(fault.Code(fault.New(fault.ErrExpired, "op", "m")), convey.ShouldEqual, "expired")
			convey.So(fault.Code(fault.New(fault.ErrTransient, "op", "m")), convey.ShouldEqual, "transient")
			convey.So(fault.Code(fault.New(fault.ErrInvariant, "op", "m")), convey.ShouldEqual, "invariant_violation")
		})

		convey.Convey("When the error carries no category", func() {
			convey.So(fault.Code(io.EOF), convey.ShouldEqual, "internal")
		})
	})
}
