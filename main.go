package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/google/uuid"

	"ytsum/config"
	"ytsum/handlers"
	"ytsum/logger"
	"ytsum/metadata"
	"ytsum/orchestrator"
	"ytsum/progress"
	"ytsum/providers"
	"ytsum/repository/sqlite"
	"ytsum/services/anonymous"
	"ytsum/storage"
	"ytsum/summarizer"
	"ytsum/validation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logConfig, err := logger.Init(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Initialize database
	db, err := sqlite.InitDB(cfg.Database.Path, sqlite.DBConfig{
		MaxConnections:     cfg.Database.MaxConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	summaryRepo := sqlite.NewSummaryRepository(db)
	fingerprintRepo := sqlite.NewFingerprintRepository(db)

	// Initialize progress store
	store, err := progress.NewStore(cfg.Progress.Retention, cfg.Progress.SweepSchedule)
	if err != nil {
		log.Fatalf("Failed to initialize progress store: %v", err)
	}
	defer store.Close()

	// Initialize transcript providers
	providerList, err := providers.FromConfig(cfg.Pipeline)
	if err != nil {
		log.Fatalf("Failed to initialize providers: %v", err)
	}
	chain := providers.NewChain(providerList, cfg.Pipeline.ProviderTimeout)

	// Initialize services
	validator := validation.NewValidator()

	metadataService := metadata.NewService(metadata.Config{
		APIKey:      cfg.Pipeline.YouTubeAPIKey,
		MaxDuration: cfg.Pipeline.MaxVideoDuration,
		Timeout:     15 * time.Second,
	})

	summarizerService := summarizer.NewService(summarizer.Config{
		BaseURL: cfg.Pipeline.SummarizerURL,
		APIKey:  cfg.Pipeline.SummarizerKey,
		Model:   cfg.Pipeline.SummarizerName,
		Timeout: cfg.Pipeline.SummarizerTimeout,
	})

	anonymousService := anonymous.NewService(fingerprintRepo, summaryRepo, anonymous.Config{
		UseLimit: cfg.Anonymous.UseLimit,
	})

	var archiver orchestrator.Archiver
	if cfg.Archive.Enabled {
		spaces, err := storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Region:    cfg.Archive.Region,
			Endpoint:  cfg.Archive.Endpoint,
			Bucket:    cfg.Archive.Bucket,
		})
		if err != nil {
			log.Fatalf("Failed to initialize archive storage: %v", err)
		}
		archiver = spaces
	}

	orchestratorService := orchestrator.NewService(
		validator,
		metadataService,
		chain,
		summarizerService,
		summaryRepo,
		anonymousService,
		store,
		archiver,
		cfg.Pipeline,
	)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: !cfg.Debug,
		StrictRouting:         true,
		CaseSensitive:         true,
		AppName:               "ytsum " + cfg.Version,
	})

	// Setup middleware
	setupMiddleware(app, cfg, logConfig)

	// Setup routes
	summarizeHandler := handlers.NewSummarizeHandler(orchestratorService, summaryRepo)
	progressHandler := handlers.NewProgressHandler(store, cfg.Polling)
	claimHandler := handlers.NewClaimHandler(anonymousService)

	app.Post("/api/summarize", summarizeHandler.Summarize)
	app.Get("/api/summaries/:id", summarizeHandler.GetSummary)
	app.Get("/api/progress/config", progressHandler.PollingConfig)
	app.Get("/api/progress/:task_id", progressHandler.Get)
	app.Delete("/api/progress/:task_id", progressHandler.Delete)
	app.Post("/api/claim", claimHandler.Claim)

	// Health check
	app.Get("/health", handlers.HealthCheck)

	// Graceful shutdown setup
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownChan
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	serverAddr := ":" + cfg.ServerPort
	if cfg.Debug {
		log.Printf("Server starting on http://localhost%s", serverAddr)
	}

	if err := app.Listen(serverAddr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

func setupMiddleware(app *fiber.App, cfg *config.Config, logConfig *fiberLogger.Config) {
	if cfg.Middleware.EnableRecover {
		app.Use(recover.New(recover.Config{
			EnableStackTrace: cfg.Debug,
		}))
	}

	if cfg.Middleware.EnableRequestID {
		app.Use(requestid.New(requestid.Config{
			Header: "X-Request-ID",
			Generator: func() string {
				return uuid.New().String()
			},
		}))
	}

	if cfg.Middleware.EnableLogger {
		app.Use(fiberLogger.New(*logConfig))
	}

	if cfg.Middleware.EnableTimeout {
		app.Use(timeout.New(func(c *fiber.Ctx) error {
			return c.Next()
		}, cfg.RequestTimeout))
	}

	if cfg.Middleware.EnableCORS {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(cfg.CORS.AllowedOrigins, ","),
			AllowMethods:     strings.Join(cfg.CORS.AllowedMethods, ","),
			AllowHeaders:     strings.Join(cfg.CORS.AllowedHeaders, ","),
			ExposeHeaders:    strings.Join(cfg.CORS.ExposedHeaders, ","),
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		}))
	}

	if cfg.Middleware.EnableRateLimit && cfg.RateLimit.Enabled {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.RequestsPerMinute,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Rate limit exceeded",
				})
			},
		}))
	}

	if cfg.Middleware.EnableCompress {
		app.Use(compress.New(compress.Config{
			Level: compress.LevelDefault,
		}))
	}

	if cfg.Middleware.EnableETag {
		app.Use(etag.New())
	}
}
