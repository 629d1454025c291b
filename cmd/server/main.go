package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/crmsim/consortium-engine/internal/api"
	"github.com/crmsim/consortium-engine/internal/auth"
	"github.com/crmsim/consortium-engine/internal/config"
	"github.com/crmsim/consortium-engine/internal/metrics"
	"github.com/crmsim/consortium-engine/internal/simulation"
	"github.com/crmsim/consortium-engine/internal/store"
	"github.com/crmsim/consortium-engine/migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(1)
	}

	// `server token <company_id> <role>` prints a development token.
	if len(os.Args) > 1 && os.Args[1] == "token" {
		os.Exit(issueToken(cfg, os.Args[2:]))
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		if err := migrations.Apply(context.Background(), pool); err != nil {
			slog.Error("database migration failed", "err", err)
			os.Exit(1)
		}
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.RedisURL != "" {
			opt, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, cfg.CacheTTL)
			slog.Info("Redis cache enabled", "ttl", cfg.CacheTTL.String())
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Simulation engine ---
	engine := simulation.NewEngine(cfg.Rates())
	memo := simulation.NewMemo(engine, cfg.MemoSize)
	for idx, rate := range engine.Rates() {
		slog.Info("index rate", "index", string(idx), "annual", rate.String())
	}

	// --- WebSocket hub ---
	wsHub := api.NewWSHub()
	go wsHub.Run()

	svc := api.NewService(st, memo, wsHub)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
	}).Handler)
	r.Use(auth.NewMiddleware([]byte(cfg.JWTSecret), auth.NewPolicy("/health", "/metrics")).Wrap)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"consortium-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	svc.Mount(r, api.NewUpgrader(cfg.CORSOrigins))

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("consortium-engine listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down consortium-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("consortium-engine stopped")
}

func issueToken(cfg config.Config, args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: server token <company_id> <viewer|advisor|admin>")
		return 2
	}
	role, ok := auth.NormalizeRole(args[1])
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", args[1])
		return 2
	}
	token, err := auth.IssueToken([]byte(cfg.JWTSecret), args[0], role, "cli", 24*time.Hour)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(token)
	return 0
}
