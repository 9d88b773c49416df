package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grantor/internal/access"
	"grantor/internal/grant"
	granthandler "grantor/internal/grant/handler"
	grantservice "grantor/internal/grant/service"
	"grantor/internal/interaction"
	interactionhandler "grantor/internal/interaction/handler"
	interactionservice "grantor/internal/interaction/service"
	"grantor/internal/platform/config"
	"grantor/internal/platform/httpserver"
	"grantor/internal/platform/logger"
	"grantor/internal/platform/metrics"
	"grantor/internal/platform/postgres"
	platformredis "grantor/internal/platform/redis"
	"grantor/internal/session"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	var (
		grantStore       grant.Store
		interactionStore interaction.Store
		accessStore      access.Store
	)
	if db != nil {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("postgres migration failed", "error", err)
			os.Exit(1)
		}
		grantStore = grant.NewPostgresStore(db)
		interactionStore = interaction.NewPostgresStore(db)
		accessStore = access.NewPostgresStore(db)
		defer db.Close()
	} else {
		log.Warn("no database configured, using in-memory stores")
		grantStore = grant.NewInMemoryStore()
		interactionStore = interaction.NewInMemoryStore()
		accessStore = access.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	var sessionStore session.Store
	if redisClient != nil {
		sessionStore = session.NewRedisStore(redisClient.Client)
		defer redisClient.Close()
	} else {
		log.Warn("no redis configured, using in-memory session store")
		sessionStore = session.NewInMemoryStore()
	}
	sessions := session.NewManager(sessionStore, cfg.SessionCookieName, cfg.SessionTTL)

	m := metrics.New()

	flow := interactionservice.New(
		grantStore,
		interactionStore,
		accessStore,
		interactionservice.Config{
			AuthServerURL:        cfg.AuthServerURL,
			IdentityServerURL:    cfg.IdentityServerURL,
			IdentityServerSecret: cfg.IdentityServerSecret,
		},
		log,
		m,
	)
	admin := grantservice.New(grantStore, log, m)

	router := chi.NewRouter()
	interactionhandler.New(flow, sessions, log).Register(router)
	granthandler.New(admin, cfg.AdminToken, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		healthz(w, r, db, redisClient)
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting grantor", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

func healthz(w http.ResponseWriter, r *http.Request, db *sql.DB, redisClient *platformredis.Client) {
	ctx := r.Context()
	if db != nil {
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	if redisClient != nil {
		if err := redisClient.Health(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
