package cli

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docvault/docs"
	"docvault/internal/config"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/metrics"
	"docvault/internal/otel"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API together with the pending-upload sweeper.

The server shuts down gracefully on SIGINT or SIGTERM, waiting up to
shutdown_timeout for in-flight requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth_jwt_secret is required to serve the API")
	}

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.log

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	lifecycle, err := metrics.NewLifecycle(reg)
	if err != nil {
		return err
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	docRepo := postgres.NewDocumentPostgres(rt.db)
	shareRepo := postgres.NewSharePostgres(rt.db)
	docSvc := service.NewDocumentService(rt.store, docRepo, log, lifecycle, service.OptionsFromConfig(cfg.Upload))
	shareSvc := service.NewShareService(shareRepo, docRepo, docSvc, log)

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(log),
		DisableStartupMessage: true,
		BodyLimit:             middleware.BodyLimit(cfg.HTTP),
	})

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics"
	})))
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())
	for _, h := range middleware.Protections(cfg.HTTP) {
		app.Use(h)
	}

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:        rt.db,
		Documents: docSvc,
		Shares:    shareSvc,
		Auth:      middleware.JWT([]byte(cfg.Auth.JWTSecret)),
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	sweeperDone := make(chan struct{})
	if cfg.Sweeper.Enabled {
		sweeper := service.NewSweeper(docRepo, rt.store, log, lifecycle, cfg.Upload.URLTTL, cfg.Sweeper)
		go func() {
			defer close(sweeperDone)
			sweeper.Run(sweepCtx)
		}()
	} else {
		close(sweeperDone)
	}

	errCh := make(chan error, 1)
	addr := ":" + cfg.Port
	go func() {
		log.Info("server_started", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		stopSweeper()
		<-sweeperDone
		if err != nil {
			log.Error("server_failed", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	log.Info("server_stopping", zap.Duration("timeout", cfg.ShutdownTimeout))
	stopSweeper()
	shutdownErr := app.ShutdownWithTimeout(cfg.ShutdownTimeout)
	<-sweeperDone
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("server_listen_returned", zap.Error(err))
	}
	if shutdownErr != nil {
		log.Error("server_shutdown_failed", zap.Error(shutdownErr))
		return shutdownErr
	}
	log.Info("server_stopped")
	return nil
}
