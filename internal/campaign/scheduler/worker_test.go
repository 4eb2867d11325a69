package scheduler

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	campaigndomain "github.com/smallbiznis/retainly/internal/campaign/domain"
	"github.com/smallbiznis/retainly/internal/cache"
	"github.com/smallbiznis/retainly/internal/config"
	"go.uber.org/zap"
)

// failingRunner fails runs for the campaigns named in failures and
// succeeds otherwise.
type failingRunner struct {
	failures map[string]error
	ran      []string
}

func (r *failingRunner) Run(_ context.Context, def campaigndomain.Definition, dryRun bool) (*campaigndomain.RunResult, error) {
	r.ran = append(r.ran, def.Key)
	result := campaigndomain.NewRunResult(def.Key, "run-"+def.Key, dryRun, time.Now().UTC())
	result.Step(1).AddSent()
	return result, r.failures[def.Key]
}

func newTestWorker(t *testing.T, runner campaigndomain.Runner) (*Worker, cache.Cache[string, campaigndomain.Report]) {
	t.Helper()
	registry, err := campaigndomain.NewRegistry(campaigndomain.ShippedCampaigns()...)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	lastRuns := cache.NewTTLCache[string, campaigndomain.Report]()
	worker := NewWorker(Params{
		Log:      zap.NewNop(),
		Runner:   runner,
		Registry: registry,
		LastRuns: lastRuns,
		Config: config.Config{
			Engine:    config.Engine{Concurrency: 1, RunTimeout: time.Minute},
			Scheduler: config.Scheduler{Interval: time.Hour},
		},
	})
	return worker, lastRuns
}

func TestRunOnceCoversAllCampaigns(t *testing.T) {
	runner := &failingRunner{failures: map[string]error{}}
	worker, lastRuns := newTestWorker(t, runner)

	worker.RunOnce(context.Background())

	if len(runner.ran) != 2 {
		t.Fatalf("expected both campaigns run, got %v", runner.ran)
	}
	for _, key := range []string{campaigndomain.CampaignReviewRequest, campaigndomain.CampaignWinback} {
		report, ok := lastRuns.Get(key)
		if !ok {
			t.Fatalf("expected cached report for %s", key)
		}
		if !report.Success {
			t.Fatalf("expected successful report for %s, got %+v", key, report)
		}
	}
}

func TestRunOnceCachesFailureWithReason(t *testing.T) {
	runner := &failingRunner{failures: map[string]error{
		campaigndomain.CampaignReviewRequest: fmt.Errorf("select candidates: store unreachable"),
	}}
	worker, lastRuns := newTestWorker(t, runner)

	worker.RunOnce(context.Background())

	// One campaign's failure does not stop the others.
	if len(runner.ran) != 2 {
		t.Fatalf("expected both campaigns run, got %v", runner.ran)
	}

	report, ok := lastRuns.Get(campaigndomain.CampaignReviewRequest)
	if !ok {
		t.Fatalf("expected cached report for failed campaign")
	}
	if report.Success {
		t.Fatalf("expected success=false, got %+v", report)
	}
	found := false
	for _, detail := range report.ErrorDetails {
		if strings.Contains(detail, "store unreachable") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected failure reason in error details, got %+v", report.ErrorDetails)
	}

	other, ok := lastRuns.Get(campaigndomain.CampaignWinback)
	if !ok || !other.Success {
		t.Fatalf("expected unaffected campaign to succeed, got %+v", other)
	}
}
