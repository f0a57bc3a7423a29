package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "gwrank")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("pfx"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metric names carry the namespace, subsystem and prefix", func() {
				manager.searchRequests.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_pfx_search_requests_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When creating with empty option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "gwrank")
				So(manager.subsystem, ShouldEqual, "rankings")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording searches", func() {
			before := testutil.ToFloat64(globalManager.searchRequests)
			RecordSearch(12.5, 3)
			RecordSearchCache(true)
			RecordSearchCache(false)

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.searchRequests), ShouldEqual, before+1)
			})
		})

		Convey("When recording ingestion outcomes", func() {
			ok := globalManager.ingestBatches.WithLabelValues(OutcomeSuccess)
			bad := globalManager.ingestBatches.WithLabelValues(OutcomeBadFormat)
			okBefore, badBefore := testutil.ToFloat64(ok), testutil.ToFloat64(bad)
			rowsBefore := testutil.ToFloat64(globalManager.ingestRows)

			RecordIngest(OutcomeSuccess, 10, 4)
			RecordIngest(OutcomeBadFormat, 10, 1)

			Convey("Then rows only count for successful batches", func() {
				So(testutil.ToFloat64(ok), ShouldEqual, okBefore+1)
				So(testutil.ToFloat64(bad), ShouldEqual, badBefore+1)
				So(testutil.ToFloat64(globalManager.ingestRows), ShouldEqual, rowsBefore+10)
				So(testutil.ToFloat64(globalManager.lastIngestUnix), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When recording snapshots", func() {
			RecordSnapshot(42)
			RecordSnapshotFailure()

			Convey("Then the last duration is kept", func() {
				So(testutil.ToFloat64(globalManager.snapshotLastDuration), ShouldEqual, 42)
			})
		})

		Convey("When updating dataset gauges", func() {
			UpdateDataset(500, 1, 12, 40)

			Convey("Then gauges hold the values", func() {
				So(testutil.ToFloat64(globalManager.datasetRows), ShouldEqual, 500)
				So(testutil.ToFloat64(globalManager.datasetFirstEvent), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.datasetLatestEvent), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.datasetParticipants), ShouldEqual, 40)
			})
		})

		Convey("When recording storage, http, error and system metrics", func() {
			So(func() {
				RecordQuery("find_by_id")
				RecordInvariantError()
				RecordStorageLatency("search", 1.2)
				RecordStorageError("commit")
				RecordHTTPRequest("search", "POST", "200")
				RecordHTTPRequestDuration("search", "POST", "200", 3)
				RecordErrorByComponent("store", "timeout")
				RecordErrorByType("server_error", "high")
				RecordErrorByEndpoint("upload", "POST", "client_error")
				RecordErrorLatency("http", "client_error", 2)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics recorded concurrently", t, func() {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordSearch(1, 1)
					RecordStorageLatency("search", 1)
					RecordHTTPRequest("search", "GET", "200")
				}
			}()
		}
		wg.Wait()

		Convey("Then the registry still gathers", func() {
			_, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
		})
	})
}
