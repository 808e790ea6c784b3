package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/factusapp/factusapp/internal/api"
	v1 "github.com/factusapp/factusapp/internal/api/v1"
	"github.com/factusapp/factusapp/internal/cache"
	"github.com/factusapp/factusapp/internal/config"
	"github.com/factusapp/factusapp/internal/domain/tax"
	"github.com/factusapp/factusapp/internal/integration/factus"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/metrics"
	"github.com/factusapp/factusapp/internal/postgres"
	"github.com/factusapp/factusapp/internal/repository"
	"github.com/factusapp/factusapp/internal/sentry"
	"github.com/factusapp/factusapp/internal/service"
	"github.com/factusapp/factusapp/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			validator.NewValidator,
			config.NewConfig,
			logger.NewLogger,

			// Metrics
			provideRegistry,
			func(r *prometheus.Registry) prometheus.Registerer { return r },
			func(r *prometheus.Registry) prometheus.Gatherer { return r },
			metrics.New,

			// Token cache
			provideCache,

			// Repositories
			repository.NewInvoiceRepository,
			repository.NewUserRepository,
			repository.NewCustomerRepository,
			repository.NewProductRepository,

			// Fiscal provider
			factus.NewClient,
			factus.NewMapper,
		),
		sentry.Module(),
		postgres.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			tax.NewCalculator,
			service.NewPlanLimiter,
			service.NewServiceParams,
			service.NewInvoiceService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(startAPIServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideCache() cache.Cache {
	return cache.NewInMemoryCache()
}

func provideHandlers(
	db *postgres.DB,
	logger *logger.Logger,
	invoiceService service.InvoiceService,
) api.Handlers {
	return api.Handlers{
		Health:  v1.NewHealthHandler(db, logger),
		Invoice: v1.NewInvoiceHandler(invoiceService, logger),
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address, "demo_mode", cfg.Factus.DemoMode)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}
