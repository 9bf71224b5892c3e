package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	StageOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uniquefile",
			Name:      "stage_outcomes_total",
			Help:      "Pipeline stage invocations by stage and outcome.",
		},
		[]string{"stage", "outcome"},
	)

	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uniquefile",
			Name:      "uploads_total",
			Help:      "Uploads handled by the host, by result.",
		},
		[]string{"result"},
	)

	FingerprintLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "uniquefile",
			Name:      "fingerprint_latency_seconds",
			Help:      "Time spent hashing upload payloads.",
		},
		[]string{"algorithm"},
	)

	StoredAttachments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "uniquefile",
			Name:      "stored_attachments",
			Help:      "Attachment records currently in the store.",
		},
	)
)

// Register registers the collectors into the default registry.
func Register() {
	prometheus.MustRegister(StageOutcomes, Uploads, FingerprintLatency, StoredAttachments)
}
