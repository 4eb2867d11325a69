package main

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/joho/godotenv"
	"github.com/smallbiznis/retainly/internal/campaign"
	"github.com/smallbiznis/retainly/internal/campaign/scheduler"
	"github.com/smallbiznis/retainly/internal/clock"
	"github.com/smallbiznis/retainly/internal/config"
	"github.com/smallbiznis/retainly/internal/customer"
	"github.com/smallbiznis/retainly/internal/event"
	"github.com/smallbiznis/retainly/internal/mailer"
	mailersqs "github.com/smallbiznis/retainly/internal/mailer/sqs"
	"github.com/smallbiznis/retainly/internal/migration"
	"github.com/smallbiznis/retainly/internal/observability"
	"github.com/smallbiznis/retainly/internal/order"
	"github.com/smallbiznis/retainly/internal/seed"
	"github.com/smallbiznis/retainly/internal/server"
	"github.com/smallbiznis/retainly/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,

		fx.Invoke(bootstrap),

		customer.Module,
		order.Module,
		event.Module,
		fx.Provide(newSender),
		campaign.Module,
		scheduler.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

// bootstrap runs migrations and, outside production, the optional demo
// dataset before any route or worker starts.
func bootstrap(conn *gorm.DB, node *snowflake.Node, cfg config.Config, log *zap.Logger) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err := migration.RunMigrations(sqlDB); err != nil {
		return err
	}
	if cfg.Bootstrap.SeedDemoData && !cfg.IsProduction() {
		log.Info("seeding demo data", zap.String("version", version))
		return seed.EnsureDemoData(conn, node)
	}
	return nil
}

// newSender picks the send boundary adapter from configuration.
func newSender(cfg config.Config, log *zap.Logger) (mailer.Sender, error) {
	switch cfg.Mailer.Mode {
	case config.MailerModeSQS:
		return mailersqs.NewSender(context.Background(), cfg.Mailer, log)
	case config.MailerModeLog:
		return mailer.NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unsupported mailer mode %q", cfg.Mailer.Mode)
	}
}
