package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/Ghavvvo/pulpy/internal/api"
	"github.com/Ghavvvo/pulpy/internal/app"
	"github.com/Ghavvvo/pulpy/internal/config"
	"github.com/Ghavvvo/pulpy/internal/store"
	"github.com/Ghavvvo/pulpy/pkg/rabbitmq"
	"github.com/Ghavvvo/pulpy/pkg/whatsapp"
)

func maskAMQPURLForLog(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil {
		return "<unparseable>"
	}
	if u.User != nil {
		u.User = url.UserPassword("****", "****")
	}
	return u.String()
}

func main() {
	// Load .env file for local development. In production, env vars are set directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load application configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	// If a platform-provided PORT is set (e.g., Railway/Render), prefer it
	if port := os.Getenv("PORT"); port != "" {
		cfg.ServerPort = port
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Establish database connection pool
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v\n", err)
	}

	dbConfig.MaxConns = 10
	dbConfig.MinConns = 2
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts behind poolers
	dbConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Set up repository and ensure required tables exist (idempotent)
	repo := store.NewPostgresStore(dbpool)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		log.Printf("Warning: failed ensuring tables (may already exist): %v", err)
	}

	// Set up RabbitMQ producer; allow nil on failure so the service still starts
	var producer app.Publisher
	if cfg.RabbitMQURL != "" {
		log.Printf("RABBITMQ_URL (masked)=%s", maskAMQPURLForLog(cfg.RabbitMQURL))
		if p, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL); err != nil {
			log.Printf("WARNING: Failed to connect to RabbitMQ at startup: %v. Continuing without MQ.", err)
		} else {
			producer = p
			defer p.Close()
			log.Println("RabbitMQ producer connected")
		}
	}

	tokens := app.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.SessionTokenTTLHours)*time.Hour)
	service := app.NewService(repo, tokens, producer)

	// Start the subscription expiry scheduler
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	jobs := app.NewJobs(repo, logger)
	scheduler := app.NewScheduler(jobs, logger, cfg.SubscriptionExpirySchedule)
	scheduler.Start()
	defer scheduler.Stop()

	// Set up router and handlers
	handler := api.NewHandler(service, tokens, whatsapp.Support{Number: cfg.SupportWhatsApp})
	router := api.NewRouter(handler, tokens)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
