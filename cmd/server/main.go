// fincoach - conversational finance coach server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ashureev/fincoach/internal/api"
	"github.com/ashureev/fincoach/internal/catalog"
	"github.com/ashureev/fincoach/internal/config"
	"github.com/ashureev/fincoach/internal/content"
	"github.com/ashureev/fincoach/internal/conversation"
	"github.com/ashureev/fincoach/internal/generation"
	"github.com/ashureev/fincoach/internal/identity"
	"github.com/ashureev/fincoach/internal/middleware"
	"github.com/ashureev/fincoach/internal/store"
	"github.com/ashureev/fincoach/internal/triggers"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if l, err := cfg.SlogLevel(); err == nil {
		level.Set(l)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	products, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		slog.Error("Failed to load product catalog", "error", err, "path", cfg.CatalogPath)
		os.Exit(1)
	}
	slog.Info("Product catalog loaded", "products", products.Len())

	healthChecks := map[string]api.Pinger{"database": repo}

	var contentStore content.Store
	if cfg.Content.RedisURL != "" {
		rdb, err := content.NewRedisClient(context.Background(), cfg.Content.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		contentStore = content.NewRedisStore(rdb, "")
		healthChecks["redis"] = api.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		slog.Info("Content cache backed by Redis")
	} else {
		contentStore = content.NewMemoryStore(cfg.Content.MaxEntries)
		slog.Info("Content cache in memory", "max_entries", cfg.Content.MaxEntries)
	}

	// Initialize services.
	engine := triggers.NewEngine(products)
	sessions := conversation.NewRegistry()
	generator := generation.NewHTTPClient(cfg.Generation.URL, cfg.Generation.APIKey, cfg.Generation.Timeout)
	contentSvc := content.NewService(contentStore, generator, engine,
		content.WithTTL(cfg.Content.TTL),
		content.WithTimeout(cfg.Generation.Timeout),
		content.WithLogger(logger),
	)

	// Initialize handlers.
	handler := api.NewHandler(repo, sessions, engine, contentSvc, logger)
	healthHandler := api.NewHealthHandler(healthChecks)
	wsHandler := api.NewWebSocketHandler(sessions, originPatterns(cfg.CORSOrigins), logger)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// Identified routes.
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware)
		handler.RegisterRoutes(r)
		r.Get("/ws/conversation", wsHandler.ServeHTTP)
	})

	// WriteTimeout stays 0 so WebSocket connections are not cut.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	content.StartSweeper(ctx, contentSvc, cfg.Content.SweepInterval)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// originPatterns converts CORS origins to WebSocket host patterns.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		if i := strings.Index(o, "://"); i >= 0 {
			o = o[i+3:]
		}
		patterns = append(patterns, o)
	}
	return patterns
}
