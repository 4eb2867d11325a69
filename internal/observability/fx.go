package observability

import (
	"github.com/smallbiznis/retainly/internal/config"
	"github.com/smallbiznis/retainly/internal/observability/logger"
	"github.com/smallbiznis/retainly/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("observability",
	logger.Module,
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) error {
		_, err := tracing.NewProvider(lc, cfg, log)
		return err
	}),
)
