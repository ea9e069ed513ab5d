// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"firestige.xyz/sniff/internal/core"
)

var (
	// FramesTotal counts frames read from the capture source
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sniff_frames_total",
			Help: "Total number of frames captured",
		},
		[]string{"interface"},
	)

	// FrameBytes tracks the captured length distribution
	FrameBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sniff_frame_bytes",
			Help:    "Captured frame length in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10), // 64 .. 32768
		},
		[]string{"interface"},
	)

	// OutcomesTotal counts the layer and status at which decoding of each frame ended
	OutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sniff_decode_outcomes_total",
			Help: "Total number of decode outcomes by final layer and status",
		},
		[]string{"interface", "layer", "status"},
	)

	// CaptureErrorsTotal counts fatal capture source errors
	CaptureErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sniff_capture_errors_total",
			Help: "Total number of capture source errors",
		},
		[]string{"interface"},
	)

	// SinkErrorsTotal counts records a sink failed to deliver
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sniff_sink_errors_total",
			Help: "Total number of sink delivery errors",
		},
		[]string{"sink"},
	)
)

// ObserveFrame records one captured frame and the outcome it decoded to.
func ObserveFrame(iface string, captureLen int, o core.Outcome) {
	FramesTotal.WithLabelValues(iface).Inc()
	FrameBytes.WithLabelValues(iface).Observe(float64(captureLen))

	last := core.Innermost(o)
	OutcomesTotal.WithLabelValues(iface, string(last.Layer()), core.StatusOf(last).String()).Inc()
}
