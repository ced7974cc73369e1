package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconMetrics records reconciliation run outcomes, including the data-gap
// skip statistics the run summary reports.
type ReconMetrics struct {
	runDuration        *prometheus.HistogramVec
	runSuccess         *prometheus.CounterVec
	runFailure         *prometheus.CounterVec
	partitions         *prometheus.CounterVec
	partitionTimeouts  *prometheus.CounterVec
	comparisonsSkipped *prometheus.CounterVec
}

// NewReconMetrics registers the reconciliation metrics on the provided registerer.
func NewReconMetrics(reg prometheus.Registerer) *ReconMetrics {
	if reg == nil {
		return &ReconMetrics{}
	}
	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recon_run_duration_seconds",
		Help:    "Duration of reconciliation runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"org"})
	runSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recon_run_success",
		Help: "Completed reconciliation runs.",
	}, []string{"org"})
	runFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recon_run_failure",
		Help: "Aborted reconciliation runs.",
	}, []string{"org"})
	partitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recon_partitions_processed",
		Help: "SKU partitions processed across runs.",
	}, []string{"org"})
	partitionTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recon_partition_timeouts",
		Help: "SKU partitions excluded after exceeding their budget.",
	}, []string{"org"})
	comparisonsSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recon_comparisons_skipped",
		Help: "Comparisons skipped per data-gap reason.",
	}, []string{"org", "reason"})
	reg.MustRegister(runDuration, runSuccess, runFailure, partitions, partitionTimeouts, comparisonsSkipped)
	return &ReconMetrics{
		runDuration:        runDuration,
		runSuccess:         runSuccess,
		runFailure:         runFailure,
		partitions:         partitions,
		partitionTimeouts:  partitionTimeouts,
		comparisonsSkipped: comparisonsSkipped,
	}
}

// ObserveRunDuration records the duration of a run for the given org.
func (m *ReconMetrics) ObserveRunDuration(org string, duration time.Duration) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.WithLabelValues(normalizeLabel(org)).Observe(duration.Seconds())
}

// IncRunSuccess increments the completed-run counter.
func (m *ReconMetrics) IncRunSuccess(org string) {
	if m == nil || m.runSuccess == nil {
		return
	}
	m.runSuccess.WithLabelValues(normalizeLabel(org)).Inc()
}

// IncRunFailure increments the aborted-run counter.
func (m *ReconMetrics) IncRunFailure(org string) {
	if m == nil || m.runFailure == nil {
		return
	}
	m.runFailure.WithLabelValues(normalizeLabel(org)).Inc()
}

// AddPartitions counts processed partitions.
func (m *ReconMetrics) AddPartitions(org string, n int) {
	if m == nil || m.partitions == nil || n <= 0 {
		return
	}
	m.partitions.WithLabelValues(normalizeLabel(org)).Add(float64(n))
}

// AddPartitionTimeouts counts partitions excluded after timing out.
func (m *ReconMetrics) AddPartitionTimeouts(org string, n int) {
	if m == nil || m.partitionTimeouts == nil || n <= 0 {
		return
	}
	m.partitionTimeouts.WithLabelValues(normalizeLabel(org)).Add(float64(n))
}

// AddSkippedComparisons counts comparisons excluded for a data-gap reason.
func (m *ReconMetrics) AddSkippedComparisons(org, reason string, n int) {
	if m == nil || m.comparisonsSkipped == nil || n <= 0 {
		return
	}
	m.comparisonsSkipped.WithLabelValues(normalizeLabel(org), normalizeLabel(reason)).Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
