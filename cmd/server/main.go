package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rosterd/internal/audit"
	audithandler "rosterd/internal/audit/handler"
	"rosterd/internal/platform/config"
	"rosterd/internal/platform/httpserver"
	"rosterd/internal/platform/logger"
	"rosterd/internal/platform/metrics"
	"rosterd/internal/platform/middleware"
	platformredis "rosterd/internal/platform/redis"
	"rosterd/internal/platform/token"
	rosterhandler "rosterd/internal/roster/handler"
	rosterservice "rosterd/internal/roster/service"
	memorystore "rosterd/internal/roster/store/memory"
	postgresstore "rosterd/internal/roster/store/postgres"
	"rosterd/internal/sanity"
	"rosterd/internal/sanity/cache"
	sanityhandler "rosterd/internal/sanity/handler"
)

// main wires the stores, the check registry, and the HTTP surface. Business
// logic lives in the internal packages; this file only assembles them.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// rosterStore is the combined surface both store implementations provide.
type rosterStore interface {
	sanity.Store
	rosterservice.Reader
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx := context.Background()

	var store rosterStore
	var auditStore audit.Store
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		store = postgresstore.New(db)
		auditStore = audit.NewPostgresStore(db)
		log.Info("using postgres store")
	} else {
		store = memorystore.New()
		auditStore = audit.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory store")
	}

	catalog, err := sanity.LoadCatalog(ctx, store)
	if err != nil {
		return err
	}

	publisher := audit.NewPublisher(auditStore, audit.WithLogger(log))
	defer publisher.Close()

	m := metrics.New()
	engineOpts := []sanity.EngineOption{sanity.WithMetrics(m)}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		engineOpts = append(engineOpts, sanity.WithCache(cache.New(redisClient.Client, cfg.IssueCacheTTL)))
		log.Info("issue cache enabled", "ttl", cfg.IssueCacheTTL)
	}

	engine, err := sanity.NewEngine(sanity.NewRegistry(), store, catalog, publisher, log, engineOpts...)
	if err != nil {
		return err
	}

	router := newRouter(cfg, log, engine, store, auditStore, db, redisClient)
	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting rosterd", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(
	cfg config.Server,
	log *slog.Logger,
	engine *sanity.Engine,
	store rosterservice.Reader,
	auditStore audit.Store,
	db *sql.DB,
	redisClient *platformredis.Client,
) http.Handler {
	validator := token.NewValidator(cfg.JWTSigningKey)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if db != nil {
			if err := db.PingContext(req.Context()); err != nil {
				http.Error(w, "database unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(req.Context()); err != nil {
				http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(validator, log))
		sanityhandler.New(engine, log).Register(r)
		rosterhandler.New(rosterservice.New(store), log).Register(r)
		audithandler.New(auditStore, log).Register(r)
	})

	return r
}
