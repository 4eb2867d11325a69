// Package scheduler drives campaign runs from an internal ticker for
// deployments without an external cron.
package scheduler

import (
	"context"
	"time"

	campaigndomain "github.com/smallbiznis/retainly/internal/campaign/domain"
	"github.com/smallbiznis/retainly/internal/cache"
	"github.com/smallbiznis/retainly/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// lastRunTTL keeps summaries visible long past the next scheduled run
// without growing unbounded for retired campaigns.
const lastRunTTL = 14 * 24 * time.Hour

type Worker struct {
	log        *zap.Logger
	runner     campaigndomain.Runner
	registry   *campaigndomain.Registry
	lastRuns   cache.Cache[string, campaigndomain.Report]
	interval   time.Duration
	runTimeout time.Duration
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Runner   campaigndomain.Runner
	Registry *campaigndomain.Registry
	LastRuns cache.Cache[string, campaigndomain.Report]
	Config   config.Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:        p.Log.Named("campaign.scheduler"),
		runner:     p.Runner,
		registry:   p.Registry,
		lastRuns:   p.LastRuns,
		interval:   p.Config.Scheduler.Interval,
		runTimeout: p.Config.Engine.RunTimeout,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce executes every registered campaign live, one at a time. A
// campaign's failure does not stop the others; duplicate triggers are
// harmless because the engine's send log is the source of truth.
func (w *Worker) RunOnce(ctx context.Context) {
	for _, def := range w.registry.All() {
		runCtx, cancel := context.WithTimeout(ctx, w.runTimeout)
		result, err := w.runner.Run(runCtx, def, false)
		cancel()

		if result != nil {
			report := result.Report()
			report.Success = err == nil
			if err != nil {
				report.ErrorDetails = append(report.ErrorDetails, err.Error())
			}
			w.lastRuns.Set(def.Key, report, lastRunTTL)
		}
		if err != nil {
			w.log.Warn("scheduled campaign run failed",
				zap.String("campaign", def.Key),
				zap.Error(err),
			)
			continue
		}
	}
}
