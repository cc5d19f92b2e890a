package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	patientshandler "github.com/CollinsCMK/healthfiti-backend-sub000/domains/patients/be/handler"
	patientsrepo "github.com/CollinsCMK/healthfiti-backend-sub000/domains/patients/be/repo"
	patientsservice "github.com/CollinsCMK/healthfiti-backend-sub000/domains/patients/be/service"
	tenantshandler "github.com/CollinsCMK/healthfiti-backend-sub000/domains/tenants/be/handler"
	tenantsrepo "github.com/CollinsCMK/healthfiti-backend-sub000/domains/tenants/be/repo"
	tenantsservice "github.com/CollinsCMK/healthfiti-backend-sub000/domains/tenants/be/service"
	platformauth "github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/auth"
	platformlogging "github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/logging"
	platformmiddleware "github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/middleware"
	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/persistence"
	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/tenantdb"
	tenantdbmiddleware "github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/tenantdb/middleware"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	AuthProvider    string        `env:"AUTH_PROVIDER" envDefault:"firebase"`

	BootParallelism int           `env:"BOOT_PARALLELISM" envDefault:"4"`
	BootDeadline    time.Duration `env:"BOOT_DEADLINE" envDefault:"2m"`

	TenantConnectTimeout time.Duration `env:"TENANT_CONNECT_TIMEOUT" envDefault:"10s"`
	TenantMaxConns       int32         `env:"TENANT_MAX_CONNS" envDefault:"10"`
	TenantMinConns       int32         `env:"TENANT_MIN_CONNS" envDefault:"0"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init control-plane pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	tenantStore, err := persistence.NewTenantStore(ctx, pool)
	if err != nil {
		logger.Fatal("init tenant store", zap.Error(err))
	}

	registry := tenantdb.NewRegistry()
	defer registry.Close()

	factory := tenantdb.NewFactory(tenantdb.FactoryConfig{
		ConnectTimeout: cfg.TenantConnectTimeout,
		MaxConns:       cfg.TenantMaxConns,
		MinConns:       cfg.TenantMinConns,
	}, logger)

	bootstrapper := tenantdb.NewBootstrapper(tenantdb.BootstrapDeps{
		ControlPlane: pool,
		Store:        tenantStore,
		Factory:      factory,
		Registry:     registry,
		Recorder:     tenantStore,
		Logger:       logger,
	}, tenantdb.BootstrapConfig{
		Parallelism: cfg.BootParallelism,
		Deadline:    cfg.BootDeadline,
	})

	report, err := bootstrapper.Bootstrap(ctx)
	if err != nil {
		// Only control-plane failures abort the boot; per-tenant failures are
		// in the report and already logged.
		logger.Fatal("bootstrap control plane", zap.Error(err))
	}
	for _, f := range report.Failures {
		logger.Warn("tenant unavailable after boot",
			zap.String("tenant", f.PublicID.String()),
			zap.String("slug", f.Slug),
			zap.Error(f.Err))
	}

	resolver := tenantdb.NewResolver(registry, tenantStore)

	tenantRepo := tenantsrepo.NewPostgresRepository(tenantStore)
	tenantService := tenantsservice.New(tenantRepo, factory, registry)
	tenantHTTPHandler := tenantshandler.New(tenantService, logger)

	patientRepo := patientsrepo.NewPostgresRepository()
	patientService := patientsservice.New(patientRepo)
	patientHTTPHandler := patientshandler.New(patientService, logger)

	authMiddleware := buildAuthMiddleware(ctx, cfg, logger)

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)

	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "control plane unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	apiRouter := chi.NewRouter()
	apiRouter.Use(authMiddleware)
	apiRouter.Use(platformmiddleware.RequestTrace)

	apiRouter.Route("/admin", func(r chi.Router) {
		r.Use(platformauth.RequireRole("admin"))
		tenantHTTPHandler.Routes(r)
	})

	apiRouter.Group(func(r chi.Router) {
		r.Use(tenantdbmiddleware.WithTenantConn(resolver))
		patientHTTPHandler.Routes(r)
	})

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server",
			zap.String("port", cfg.Port),
			zap.Int("tenants_live", registry.Len()),
			zap.Int("tenants_failed", len(report.Failures)))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests before draining tenant pools; the deferred
	// registry.Close and ClosePool run in that order on return.
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
