// Package metrics exposes Prometheus instrumentation for the lookup API and
// the background refresher, plus the HTTP server that serves /metrics and the
// liveness/readiness probes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OK         = "OK"
	BadRequest = "BAD_REQUEST"
	TooLarge   = "TOO_LARGE"
	NotReady   = "NOT_READY"
	Success    = "SUCCESS"
	Failure    = "FAILURE"
)

// Instrumentation publishes Prometheus metrics for lookups and refreshes.
type Instrumentation struct {
	lookupTotals    *prometheus.CounterVec
	lookupDuration  *prometheus.HistogramVec
	lookupASNs      *prometheus.CounterVec
	refreshTotals   *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	snapshotRecords prometheus.Gauge
	snapshotUpdated prometheus.Gauge
}

// NewInstrumentation registers all metric vectors on the given registerer.
func NewInstrumentation(reg prometheus.Registerer) *Instrumentation {
	inst := &Instrumentation{
		lookupTotals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asninfo",
			Name:      "lookup_requests_total",
			Help:      "Total lookup requests by method, response shape and outcome",
		}, []string{"method", "shape", "outcome"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "asninfo",
			Name:      "lookup_duration_seconds",
			Help:      "Lookup request latency",
			Buckets:   []float64{.00005, .0001, .0005, .001, .002, .005, .01, .025, .05, .1},
		}, []string{"method", "outcome"}),
		lookupASNs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asninfo",
			Name:      "lookup_asns_total",
			Help:      "Total ASNs requested and found across lookups",
		}, []string{"disposition"}),
		refreshTotals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asninfo",
			Name:      "refresh_cycles_total",
			Help:      "Background refresh cycles by result",
		}, []string{"result"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "asninfo",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of dataset fetch and commit",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		snapshotRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asninfo",
			Name:      "snapshot_records",
			Help:      "Number of ASN records in the committed snapshot",
		}),
		snapshotUpdated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asninfo",
			Name:      "snapshot_updated_timestamp_seconds",
			Help:      "Unix timestamp of the committed snapshot",
		}),
	}

	reg.MustRegister(
		inst.lookupTotals,
		inst.lookupDuration,
		inst.lookupASNs,
		inst.refreshTotals,
		inst.refreshDuration,
		inst.snapshotRecords,
		inst.snapshotUpdated,
	)

	return inst
}

// ObserveLookup records one lookup request.
func (i *Instrumentation) ObserveLookup(method, shape, outcome string, duration time.Duration) {
	i.lookupTotals.WithLabelValues(method, shape, outcome).Inc()
	i.lookupDuration.WithLabelValues(method, outcome).Observe(duration.Seconds())
}

// ObserveLookupASNs records how many ASNs a request asked for and how many
// were present in the snapshot.
func (i *Instrumentation) ObserveLookupASNs(requested, found int) {
	i.lookupASNs.WithLabelValues("requested").Add(float64(requested))
	i.lookupASNs.WithLabelValues("found").Add(float64(found))
}

// ObserveRefresh records the outcome of one refresh cycle.
func (i *Instrumentation) ObserveRefresh(result string, duration time.Duration) {
	i.refreshTotals.WithLabelValues(result).Inc()
	i.refreshDuration.Observe(duration.Seconds())
}

// SetSnapshot records the size and timestamp of the committed snapshot.
func (i *Instrumentation) SetSnapshot(records int, updatedAt time.Time) {
	i.snapshotRecords.Set(float64(records))
	i.snapshotUpdated.Set(float64(updatedAt.Unix()))
}
