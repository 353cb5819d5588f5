// Package metrics implements Prometheus metrics.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DiameterAVPsTotal counts decoded attributes by base type
	DiameterAVPsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dissect_diameter_avps_total",
			Help: "Total number of Diameter attributes decoded",
		},
		[]string{"type"},
	)

	// DiameterMalformedTotal counts malformation findings by reason
	DiameterMalformedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dissect_diameter_malformed_total",
			Help: "Total number of malformed Diameter records",
		},
		[]string{"reason"},
	)

	// DictionarySkippedTotal counts dictionary entries dropped during build
	DictionarySkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dissect_dictionary_skipped_entries_total",
			Help: "Total number of dictionary definitions skipped as malformed",
		},
	)

	// VJPacketsTotal counts VJ frames by kind (ip, uncompressed, compressed) and result
	VJPacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dissect_vj_packets_total",
			Help: "Total number of VJ frames processed",
		},
		[]string{"kind", "result"},
	)

	// VJTossTotal counts direction toss events by reason
	VJTossTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dissect_vj_toss_total",
			Help: "Total number of VJ toss events",
		},
		[]string{"reason"},
	)
)

var enabled atomic.Bool

func init() {
	enabled.Store(true)
}

// SetEnabled toggles counter updates.
func SetEnabled(on bool) {
	enabled.Store(on)
}

// Enabled reports whether counters are updated.
func Enabled() bool {
	return enabled.Load()
}

// Inc increments vec for labels when metrics are enabled.
func Inc(vec *prometheus.CounterVec, labels ...string) {
	if !enabled.Load() {
		return
	}
	vec.WithLabelValues(labels...).Inc()
}
