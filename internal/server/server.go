// Package server exposes the HTTP surface: tracking ingestion, identity
// linking, and the secret-guarded campaign job triggers.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	campaigndomain "github.com/smallbiznis/retainly/internal/campaign/domain"
	"github.com/smallbiznis/retainly/internal/cache"
	"github.com/smallbiznis/retainly/internal/config"
	eventservice "github.com/smallbiznis/retainly/internal/event/service"
	"github.com/smallbiznis/retainly/internal/observability/logger"
	"github.com/smallbiznis/retainly/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	cfg      config.Config
	log      *zap.Logger
	db       *gorm.DB
	router   *gin.Engine
	runner   campaigndomain.Runner
	registry *campaigndomain.Registry
	eventSvc *eventservice.Service
	lastRuns cache.Cache[string, campaigndomain.Report]
	limiter  *rateLimiter
}

type Params struct {
	fx.In

	Config   config.Config
	Log      *zap.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Runner   campaigndomain.Runner
	Registry *campaigndomain.Registry
	EventSvc *eventservice.Service
	LastRuns cache.Cache[string, campaigndomain.Report]
}

// NewEngine builds the shared gin engine with recovery, request logging,
// and tracing applied to every route.
func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Logger:    log,
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	if cfg.Tracing.Enabled {
		engine.Use(tracing.GinMiddleware())
	}
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:      p.Config,
		log:      p.Log.Named("server"),
		db:       p.DB,
		router:   p.Router,
		runner:   p.Runner,
		registry: p.Registry,
		eventSvc: p.EventSvc,
		lastRuns: p.LastRuns,
		limiter:  newRateLimiter(p.Config.RateLimit.Limit, p.Config.RateLimit.Window),
	}
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/healthz", s.Healthz)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/events", s.TrackRateLimit(), s.TrackEvent)
	s.router.POST("/identify", s.TrackRateLimit(), s.Identify)

	jobs := s.router.Group("/jobs", s.TriggerSecretRequired())
	jobs.POST("/:campaign/run", s.RunCampaign)
	jobs.GET("/:campaign/last-run", s.LastRun)
}

// Healthz reports process liveness plus database reachability.
func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP binds the engine to the configured address under the fx
// lifecycle. Shutdown drains in-flight requests before the process exits.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, router *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
