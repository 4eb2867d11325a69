package scheduler

import (
	"context"

	"github.com/smallbiznis/retainly/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("campaign.scheduler",
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func runWorker(lc fx.Lifecycle, cfg config.Config, worker *Worker) {
	if !cfg.Scheduler.Enabled {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go worker.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
