// cmd/admission-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admission-checker/internal/admission"
	"admission-checker/internal/api"
	"admission-checker/internal/browser"
	"admission-checker/internal/common/camunda"
	"admission-checker/internal/common/config"
	"admission-checker/internal/common/database"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/common/observability"
	"admission-checker/internal/common/retry"
	"admission-checker/internal/fallback"
	"admission-checker/internal/models"
	"admission-checker/internal/session"
	"admission-checker/internal/universities/bengurion"
	"admission-checker/internal/universities/hebrewuniversity"
	"admission-checker/internal/universities/technion"
	"admission-checker/internal/universities/telaviv"
	admissioncheck "admission-checker/internal/workers/admission-check"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var connectPolicy = retry.Policy{
	Attempts:  10,
	BaseDelay: 2 * time.Second,
	MaxDelay:  15 * time.Second,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting admission server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.App.Name, nil, log)
	defer obs.Shutdown()

	readyChecks := map[string]api.ReadyCheck{}

	// --- Verdict cache: redis in front of the per-university files ---
	var tiers []fallback.Cache
	if cfg.Database.Redis.Enabled {
		rc, err := retry.Value(ctx, connectPolicy, func(ctx context.Context) (*database.RedisClient, error) {
			return database.NewRedis(ctx, cfg.Database.Redis)
		})
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rc.Close()
		zapLog.Info("Redis connected successfully")

		ttl := time.Duration(cfg.Cache.RedisTTL) * time.Second
		tiers = append(tiers, fallback.NewRedisCache(rc.GetClient(), cfg.Cache.KeyPrefix, ttl))
		readyChecks["redis"] = rc.Ping
	}
	tiers = append(tiers, fallback.NewFileCache(cfg.Cache.Directory))

	var estimator *fallback.Estimator
	if cfg.Fallback.Enabled {
		estimator = fallback.NewEstimator(cfg.Fallback.Tiers)
	}
	resolver := fallback.NewResolver(fallback.NewTiered(log, tiers...), estimator, log)

	// --- Browser runtime ---
	driver := browser.NewDriver(cfg.Browser, log)
	if err := driver.Start(); err != nil {
		// sessions retry the start lazily; checks degrade until it succeeds
		zapLog.Error("playwright runtime failed to start", zap.Error(err))
	}
	defer func() {
		if err := driver.Stop(); err != nil {
			zapLog.Warn("playwright runtime stop failed", zap.Error(err))
		}
	}()
	manager := session.NewManager[*browser.Session](driver.Open, resolver, log)

	// --- Check history ---
	engineOpts := []admission.Option{admission.WithObservability(obs)}
	var history api.HistoryReader
	if cfg.Database.Postgres.Enabled {
		pg, err := retry.Value(ctx, connectPolicy, func(ctx context.Context) (*database.PostgresClient, error) {
			return database.NewPostgres(ctx, cfg.Database.Postgres)
		})
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		store := admission.NewPostgresHistory(pg.GetDB())
		if err := store.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("history schema setup failed", zap.Error(err))
		}
		engineOpts = append(engineOpts, admission.WithHistory(store))
		history = store
		readyChecks["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")
	}

	engine := admission.NewEngine(manager, log, []admission.Adapter{
		bengurion.NewAdapter(nil, log),
		telaviv.NewAdapter(nil, log),
		hebrewuniversity.NewAdapter(nil, log),
		technion.NewAdapter(nil, log),
	}, engineOpts...)

	// --- Workflow job workers ---
	var workers []*camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		client, err := camunda.NewClient(cfg.Camunda)
		if err != nil {
			zapLog.Fatal("zeebe client failed", zap.Error(err))
		}
		defer client.Close()
		readyChecks["camunda"] = client.HealthCheck

		for _, id := range engine.Universities() {
			handler, err := admissioncheck.NewHandler(admissioncheck.HandlerOptions{
				AppConfig:  cfg,
				Checker:    engine,
				University: id,
				Logger:     log,
			})
			if err != nil {
				zapLog.Fatal("failed to create admission-check handler", zap.String("university", string(id)), zap.Error(err))
			}
			if w := handler.Register(client.GetClient()); w != nil {
				workers = append(workers, w)
			}
		}
		zapLog.Info("Admission check workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP ---
	srv, err := api.NewServer(api.Options{
		Checker:        engine,
		History:        history,
		ReadyChecks:    readyChecks,
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
		Logger:         log,
	})
	if err != nil {
		zapLog.Fatal("api server setup failed", zap.Error(err))
	}

	servers := []*http.Server{newHTTPServer(cfg.Server.Address, srv.Router(), cfg)}
	for name, port := range cfg.Server.UniversityPorts {
		id := models.UniversityID(name)
		if _, ok := engine.Adapter(id); !ok {
			zapLog.Warn("ignoring port for unknown university", zap.String("university", name))
			continue
		}
		servers = append(servers, newHTTPServer(fmt.Sprintf(":%d", port), srv.UniversityRouter(id), cfg))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		g.Go(func() error {
			zapLog.Info("HTTP server listening", zap.String("address", s.Addr))
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen on %s: %w", s.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping...")

		for _, w := range workers {
			w.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				zapLog.Error("HTTP server shutdown failed", zap.String("address", s.Addr), zap.Error(err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("admission server stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Admission server stopped gracefully")
}

func newHTTPServer(addr string, handler http.Handler, cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      config.GetDuration(cfg.Server.RequestTimeout) + 30*time.Second,
	}
}
