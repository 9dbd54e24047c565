package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore"
	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore/postgres"
	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore/sqlite"
	"github.com/moop-bio/moop-engine/pkg/audit"
	"github.com/moop-bio/moop-engine/pkg/auth"
	"github.com/moop-bio/moop-engine/pkg/config"
	"github.com/moop-bio/moop-engine/pkg/handlers"
	"github.com/moop-bio/moop-engine/pkg/logging"
	"github.com/moop-bio/moop-engine/pkg/metrics"
	"github.com/moop-bio/moop-engine/pkg/middleware"
	"github.com/moop-bio/moop-engine/pkg/registry"
	"github.com/moop-bio/moop-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("data_dir", cfg.DataDir),
		zap.String("store_backend", cfg.Store.Backend),
		zap.Int("search_row_cap", cfg.Search.RowCap))

	loader := registry.NewLoader(cfg.DataDir, cfg.MetadataDir, cfg.UsersFile, logger)

	// The sqlite backend resolves paths through a fresh snapshot per open so
	// newly installed organism directories are picked up without a restart.
	var opener organismstore.Opener
	switch cfg.Store.Backend {
	case "postgres":
		opener = postgres.NewOpener(cfg.Store.PostgresDSNTemplate)
	default:
		opener = func(ctx context.Context, organism string) (organismstore.Store, error) {
			snap, err := loader.Snapshot()
			if err != nil {
				return nil, err
			}
			return sqlite.Open(ctx, organism, snap.StorePath(organism))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores := organismstore.NewManager(opener,
		time.Duration(cfg.Store.HandleTTLMinutes)*time.Minute, logger)
	stores.StartSweeper(ctx)
	defer stores.CloseAll()

	sink := audit.NewSink(cfg.Audit.BufferSize, logger.Named("audit"))
	defer sink.Close()
	m := metrics.New()

	var sessions *auth.SessionManager
	if cfg.Auth.SessionSecret != "" {
		sessions, err = auth.NewSessionManager(cfg.Auth.SessionSecret)
		if err != nil {
			logger.Fatal("failed to create session manager", zap.Error(err))
		}
	} else {
		logger.Warn("SESSION_SECRET not set, browser sessions disabled")
	}

	searchSvc := services.NewSearchService(stores, cfg.Search, sink, m, logger.Named("search"))
	featureSvc := services.NewFeatureService(stores, logger.Named("features"))
	catalogSvc := services.NewCatalogService(stores, logger.Named("catalog"))

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSearchHandler(loader, searchSvc, sink, logger.Named("search")).RegisterRoutes(mux)
	handlers.NewOrganismsHandler(loader, catalogSvc, logger.Named("organisms")).RegisterRoutes(mux)
	handlers.NewFeatureHandler(loader, featureSvc, logger.Named("features")).RegisterRoutes(mux)
	handlers.NewAuthHandler(loader, sessions, cfg.Auth, logger.Named("auth")).RegisterRoutes(mux)
	mux.Handle("GET /metrics", m.Handler())

	var handler http.Handler = mux
	handler = auth.Middleware(cfg.Auth, sessions, logger.Named("auth"))(handler)
	handler = middleware.Instrument(m, mux)(handler)
	handler = middleware.RequestLogger(logger.Named("http"))(handler)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting moop-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}
}
