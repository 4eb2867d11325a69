package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CampaignMetrics captures low-cardinality counters for campaign runs.
type CampaignMetrics struct {
	candidates  *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	runs        *prometheus.CounterVec
}

var (
	campaignMetricsOnce sync.Once
	campaignMetrics     *CampaignMetrics
)

// Campaign returns the process-wide campaign metrics, registering them on
// the default registerer on first use.
func Campaign() *CampaignMetrics {
	campaignMetricsOnce.Do(func() {
		campaignMetrics = newCampaignMetrics(prometheus.DefaultRegisterer)
	})
	return campaignMetrics
}

// ResetCampaignMetricsForTest clears the singleton between tests.
func ResetCampaignMetricsForTest() {
	campaignMetricsOnce = sync.Once{}
	campaignMetrics = nil
}

func newCampaignMetrics(registerer prometheus.Registerer) *CampaignMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	candidates := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retainly",
			Subsystem: "campaign",
			Name:      "candidates_total",
			Help:      "Candidates processed, by campaign, step, and outcome.",
		},
		[]string{"campaign", "step", "outcome"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "retainly",
			Subsystem: "campaign",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of campaign runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"campaign", "dry_run"},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retainly",
			Subsystem: "campaign",
			Name:      "runs_total",
			Help:      "Completed campaign runs, by campaign and result.",
		},
		[]string{"campaign", "result"},
	)

	return &CampaignMetrics{
		candidates:  register(registerer, candidates).(*prometheus.CounterVec),
		runDuration: register(registerer, runDuration).(*prometheus.HistogramVec),
		runs:        register(registerer, runs).(*prometheus.CounterVec),
	}
}

// register returns the registered collector: the fresh one on first
// registration, the existing one on a duplicate, so observations always
// reach the collector the registry scrapes.
func register(registerer prometheus.Registerer, collector prometheus.Collector) prometheus.Collector {
	if err := registerer.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return collector
}

// ObserveCandidate records one candidate outcome (sent, skipped, error).
func (m *CampaignMetrics) ObserveCandidate(campaign string, step int, outcome string) {
	if m == nil {
		return
	}
	m.candidates.WithLabelValues(campaign, strconv.Itoa(step), outcome).Inc()
}

// ObserveRun records a completed run.
func (m *CampaignMetrics) ObserveRun(campaign string, dryRun bool, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(campaign, strconv.FormatBool(dryRun)).Observe(duration.Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.runs.WithLabelValues(campaign, result).Inc()
}
