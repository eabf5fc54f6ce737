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
	chimw "github.com/go-chi/chi/v5/middleware"

	crhttp "github.com/Strob0t/ChatRelay/internal/adapter/http"
	"github.com/Strob0t/ChatRelay/internal/adapter/mcp"
	crnats "github.com/Strob0t/ChatRelay/internal/adapter/nats"
	"github.com/Strob0t/ChatRelay/internal/adapter/openai"
	"github.com/Strob0t/ChatRelay/internal/adapter/openmeteo"
	relayotel "github.com/Strob0t/ChatRelay/internal/adapter/otel"
	"github.com/Strob0t/ChatRelay/internal/adapter/ristretto"
	"github.com/Strob0t/ChatRelay/internal/adapter/tools"
	"github.com/Strob0t/ChatRelay/internal/adapter/ws"
	"github.com/Strob0t/ChatRelay/internal/config"
	"github.com/Strob0t/ChatRelay/internal/logger"
	"github.com/Strob0t/ChatRelay/internal/middleware"
	"github.com/Strob0t/ChatRelay/internal/port/broadcast"
	"github.com/Strob0t/ChatRelay/internal/resilience"
	"github.com/Strob0t/ChatRelay/internal/service"
)

func main() {
	fallback := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(fallback)

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"model", cfg.OpenAI.Model,
		"max_parallel_tools", cfg.Stream.MaxParallelTools,
	)

	ctx := context.Background()

	// --- Observability ---

	otelShutdown, err := relayotel.Init(ctx, cfg.Otel.Endpoint, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(shutdownCtx)
	}()

	metrics, err := relayotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	// In-process cache backing the weather tool
	weatherCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer weatherCache.Close()

	// --- Tools ---

	weatherSvc := openmeteo.NewClient(cfg.Weather.BaseURL,
		openmeteo.WithCache(weatherCache, cfg.Weather.CacheTTL),
		openmeteo.WithBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)),
	)

	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewWeatherTool(weatherSvc)); err != nil {
		return fmt.Errorf("tools: %w", err)
	}

	// --- Upstream provider ---

	provider := openai.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	provider.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	// --- Broadcast fan-out ---

	hub := ws.NewHub()
	broadcasters := broadcast.Multi{hub}

	if cfg.NATS.URL != "" {
		queue, err := crnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = queue.Close() }()
		broadcasters = append(broadcasters, queue)
	}

	// --- Services ---

	orch := service.New(provider, registry,
		service.WithMaxParallelTools(cfg.Stream.MaxParallelTools),
	)
	chatSvc := service.NewChatService(orch, broadcasters, metrics)

	// --- MCP ---

	if cfg.MCP.Enabled {
		mcpSrv := mcp.NewServer(mcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    cfg.MCP.Name,
			Version: cfg.MCP.Version,
		}, registry)
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mcpSrv.Stop(stopCtx)
		}()
	}

	// --- HTTP ---

	handlers := crhttp.NewHandlers(chatSvc, registry)

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()

	// Middleware
	r.Use(crhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(crhttp.Logger)
	r.Use(crhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(limiter.Handler)
	r.Use(relayotel.HTTPMiddleware(cfg.Logging.Service))

	// API routes (includes /healthz and /ws)
	crhttp.MountRoutes(r, handlers, hub)

	addr := ":" + cfg.Server.Port

	// WriteTimeout stays unset: completions stream for as long as the
	// upstream model keeps producing tokens.
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
