package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records ingestion outcomes per pharmacy and period.
type SyncMetrics struct {
	accepted    *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	payloadSize *prometheus.HistogramVec
}

// NewSyncMetrics registers the ingestion metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_payloads_accepted",
		Help: "Snapshot payloads ingested successfully.",
	}, []string{"period"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_payloads_rejected",
		Help: "Snapshot payloads rejected before any write.",
	}, []string{"reason"})
	payloadSize := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_payload_bytes",
		Help:    "Raw payload size in bytes as received on the wire.",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	}, []string{"period"})
	reg.MustRegister(accepted, rejected, payloadSize)
	return &SyncMetrics{
		accepted:    accepted,
		rejected:    rejected,
		payloadSize: payloadSize,
	}
}

// IncAccepted increments the success counter for the given period.
func (s *SyncMetrics) IncAccepted(period string) {
	if s == nil || s.accepted == nil {
		return
	}
	s.accepted.WithLabelValues(normalizeLabel(period)).Inc()
}

// IncRejected increments the rejection counter with the failure reason.
func (s *SyncMetrics) IncRejected(reason string) {
	if s == nil || s.rejected == nil {
		return
	}
	s.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObservePayloadSize records the raw payload size for the given period.
func (s *SyncMetrics) ObservePayloadSize(period string, bytes int) {
	if s == nil || s.payloadSize == nil {
		return
	}
	s.payloadSize.WithLabelValues(normalizeLabel(period)).Observe(float64(bytes))
}
