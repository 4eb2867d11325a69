package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDuplicateRegistrationSharesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newCampaignMetrics(registry)
	second := newCampaignMetrics(registry)

	// Observations through the second instance must land on the collector
	// the registry scrapes.
	second.ObserveCandidate("review_request", 1, "sent")
	second.ObserveRun("review_request", false, time.Second, nil)

	got := testutil.ToFloat64(first.candidates.WithLabelValues("review_request", "1", "sent"))
	if got != 1 {
		t.Fatalf("expected shared candidates counter to read 1, got %v", got)
	}
	got = testutil.ToFloat64(first.runs.WithLabelValues("review_request", "ok"))
	if got != 1 {
		t.Fatalf("expected shared runs counter to read 1, got %v", got)
	}
}

func TestObserveRunRecordsResult(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCampaignMetrics(registry)

	m.ObserveRun("winback", true, 2*time.Second, nil)
	m.ObserveRun("winback", false, time.Second, context.DeadlineExceeded)

	if got := testutil.ToFloat64(m.runs.WithLabelValues("winback", "ok")); got != 1 {
		t.Fatalf("expected 1 ok run, got %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("winback", "error")); got != 1 {
		t.Fatalf("expected 1 failed run, got %v", got)
	}
}
