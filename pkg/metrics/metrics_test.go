package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should register all collectors", func() {
				So(manager, ShouldNotBeNil)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				// Counters and histograms register lazily in some cases;
				// gauges are visible immediately.
				So(families, ShouldNotBeEmpty)
			})
		})

		Convey("When a nil registry option is applied", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(nil), WithRegistry(registry))

			Convey("Then the nil is ignored and creation succeeds", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		So(GetRegistry(), ShouldNotBeNil)

		Convey("When recording attempt outcomes", func() {
			before := testutil.ToFloat64(globalManager.attemptsRecorded)
			RecordAttempt()
			RecordAttempt()
			So(testutil.ToFloat64(globalManager.attemptsRecorded), ShouldEqual, before+2)

			rejectedBefore := testutil.ToFloat64(globalManager.attemptsRejected.WithLabelValues("conflict"))
			RecordAttemptRejected("conflict")
			So(testutil.ToFloat64(globalManager.attemptsRejected.WithLabelValues("conflict")), ShouldEqual, rejectedBefore+1)
		})

		Convey("When updating gauges", func() {
			UpdateQueueDepth(7)
			So(testutil.ToFloat64(globalManager.queueDepth), ShouldEqual, 7)

			UpdateQueueCapacity(128)
			So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 128)

			UpdateParticipants(42)
			So(testutil.ToFloat64(globalManager.participants), ShouldEqual, 42)
		})

		Convey("When recording recompute and snapshot activity", func() {
			inlineBefore := testutil.ToFloat64(globalManager.rankRecomputes.WithLabelValues("inline"))
			RecordRankRecompute("inline")
			So(testutil.ToFloat64(globalManager.rankRecomputes.WithLabelValues("inline")), ShouldEqual, inlineBefore+1)

			rowsBefore := testutil.ToFloat64(globalManager.snapshotRows)
			RecordSnapshot("daily")
			RecordSnapshotRows(12)
			So(testutil.ToFloat64(globalManager.snapshotRows), ShouldEqual, rowsBefore+12)
		})
	})
}
