package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rawbytedev/wirechain"
)

// chainMetrics is the Prometheus implementation of wirechain.Metrics.
type chainMetrics struct {
	segmentsLinked   prometheus.Counter
	segmentsReleased prometheus.Counter
	segmentsLive     prometheus.Gauge
	segmentBytes     prometheus.Histogram
	linearizedBytes  prometheus.Counter
	parsedElements   prometheus.Counter
	parses           *prometheus.CounterVec
}

// NewChainMetrics registers chain metrics on reg.
//
// Returns nil if reg is nil, which disables collection.
func NewChainMetrics(reg prometheus.Registerer) wirechain.Metrics {
	if reg == nil {
		return nil
	}
	return &chainMetrics{
		segmentsLinked: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wirechain_segments_linked_total",
			Help: "Segments taken over by chains, allocated or wrapped",
		}),
		segmentsReleased: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wirechain_segments_released_total",
			Help: "Segments released by chains",
		}),
		segmentsLive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "wirechain_segments_live",
			Help: "Segments currently linked into chains",
		}),
		segmentBytes: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "wirechain_segment_capacity_bytes",
			Help: "Capacity of segments linked into chains",
			Buckets: []float64{
				64,      // small element views
				256,     // typical element views
				1024,    // 1KB
				2048,    // default growth segment
				8192,    // 8KB
				65536,   // 64KB pooled buffers
				1048576, // 1MB
			},
		}),
		linearizedBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wirechain_linearized_bytes_total",
			Help: "Bytes copied into contiguous buffers",
		}),
		parsedElements: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wirechain_parsed_elements_total",
			Help: "Top-level TLV elements produced by parsing",
		}),
		parses: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "wirechain_parses_total",
				Help: "Parse attempts by result",
			},
			[]string{"result"}, // "ok", "framing_error"
		),
	}
}

func (m *chainMetrics) SegmentLinked(capacity int) {
	m.segmentsLinked.Inc()
	m.segmentsLive.Inc()
	m.segmentBytes.Observe(float64(capacity))
}

func (m *chainMetrics) SegmentReleased() {
	m.segmentsReleased.Inc()
	m.segmentsLive.Dec()
}

func (m *chainMetrics) Linearized(bytes int) {
	m.linearizedBytes.Add(float64(bytes))
}

func (m *chainMetrics) Parsed(elements int) {
	m.parses.WithLabelValues("ok").Inc()
	m.parsedElements.Add(float64(elements))
}

func (m *chainMetrics) ParseFailed() {
	m.parses.WithLabelValues("framing_error").Inc()
}
