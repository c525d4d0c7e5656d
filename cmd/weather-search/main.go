package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	httpapi "github.com/i474232898/weather-search/internal/api/http"
	"github.com/i474232898/weather-search/internal/config"
	"github.com/i474232898/weather-search/internal/history"
	"github.com/i474232898/weather-search/internal/scheduler"
	"github.com/i474232898/weather-search/internal/weather"
	"github.com/i474232898/weather-search/internal/weather/providers"
)

func main() {
	// Load configuration. A missing API key stops the process here.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	store, closeStore := openHistory(cfg)
	defer closeStore()

	// One OpenWeather client serves both pipeline stages.
	ow := providers.NewOpenWeather(httpClient, cfg.WeatherAPIBaseURL, cfg.WeatherAPIKey)
	service := weather.NewService(ow, ow)

	// Provider probe reported by /health.
	sched := scheduler.New(cfg.ProbeCities, cfg.ProbeInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-search",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout*2 + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-search",
			"history": cfg.HistoryBackend,
			"probes":  sched.Results(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, store)

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// openHistory builds the configured history backend and returns its cleanup.
func openHistory(cfg *config.AppConfig) (history.Store, func()) {
	switch cfg.HistoryBackend {
	case config.HistoryMemory:
		return history.NewMemoryStore(cfg.HistoryMaxEntries), func() {}

	case config.HistoryPostgres:
		if err := history.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatalf("failed to migrate history database: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to history database: %v", err)
		}
		store := history.NewPostgresStore(pool)
		if err := store.Health(ctx); err != nil {
			log.Fatalf("history database unreachable: %v", err)
		}
		log.Println("INFO: connected to PostgreSQL history store")
		return store, pool.Close

	default:
		log.Printf("INFO: search history file %s", cfg.HistoryFile)
		return history.NewFileStore(cfg.HistoryFile), func() {}
	}
}
