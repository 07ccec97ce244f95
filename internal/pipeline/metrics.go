package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "depth_tracker"

// Metrics are the Prometheus collectors updated by a Pipeline.
type Metrics struct {
	FramesProcessed prometheus.Counter
	FramesRejected  prometheus.Counter
	Candidates      prometheus.Histogram
	ActiveTracks    prometheus.Gauge
	Promoted        prometheus.Counter
	Evicted         prometheus.Counter
	Duration        prometheus.Histogram
}

// NewMetrics creates the pipeline collectors and registers them on reg.
// A nil reg leaves them unregistered, which is what tests and the stdio
// server without --metrics-addr use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_processed_total",
			Help:      "Depth frames run through the full pipeline.",
		}),
		FramesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rejected_total",
			Help:      "Depth frames rejected before processing.",
		}),
		Candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidates_per_frame",
			Help:      "Candidate shapes surviving the area gate, per frame.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		ActiveTracks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_tracks",
			Help:      "Tracks alive after the most recent frame.",
		}),
		Promoted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracks_promoted_total",
			Help:      "Candidates promoted to new tracks.",
		}),
		Evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracks_evicted_total",
			Help:      "Tracks removed for staleness.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_processing_seconds",
			Help:      "Time spent processing one frame.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.FramesProcessed,
			m.FramesRejected,
			m.Candidates,
			m.ActiveTracks,
			m.Promoted,
			m.Evicted,
			m.Duration,
		)
	}
	return m
}

func (m *Metrics) observe(r *Result) {
	if m == nil {
		return
	}
	m.FramesProcessed.Inc()
	m.Candidates.Observe(float64(len(r.Candidates)))
	m.ActiveTracks.Set(float64(len(r.Tracks)))
	m.Promoted.Add(float64(len(r.Report.Promoted)))
	m.Evicted.Add(float64(len(r.Report.Evicted)))
	m.Duration.Observe(r.Duration.Seconds())
}

func (m *Metrics) rejected() {
	if m == nil {
		return
	}
	m.FramesRejected.Inc()
}

func (m *Metrics) reset() {
	if m == nil {
		return
	}
	m.ActiveTracks.Set(0)
}
