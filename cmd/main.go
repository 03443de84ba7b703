package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Itskartike/globaleats/internal/cache"
	"github.com/Itskartike/globaleats/internal/catalog"
	"github.com/Itskartike/globaleats/internal/checkout"
	api "github.com/Itskartike/globaleats/internal/http"
	"github.com/Itskartike/globaleats/internal/pricing"
	"github.com/Itskartike/globaleats/internal/publisher"
	"github.com/Itskartike/globaleats/internal/repository"
	"github.com/Itskartike/globaleats/internal/resolver"
	"github.com/Itskartike/globaleats/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	telemetry.InitLogger(slog.LevelInfo)
	slog.Info("globaleats checkout engine starting")

	// Configuration
	httpPort := getEnv("HTTP_PORT", "8080")
	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	otelEndpoint := getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	requestTimeout := 10 * time.Second

	taxRate, err := decimal.NewFromString(getEnv("TAX_RATE", "0.05"))
	if err != nil {
		log.Fatalf("Invalid TAX_RATE: %v", err)
	}
	// MIN_ORDER_POLICY=warn prices below-minimum groups anyway instead of
	// rejecting the batch.
	enforceMinimum := getEnv("MIN_ORDER_POLICY", "fail") != "warn"

	// Database setup
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}
	creds := &repository.Credentials{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              dbPort,
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "globaleats"),
		MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./migrations"),
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("database migrations completed")

	// Tracing
	shutdownTracer, err := telemetry.SetupTracer(context.Background(), "globaleats-checkout", otelEndpoint)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}

	// Service wiring
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()

	pgCatalog := catalog.NewPostgresCatalog(repo.DB())
	service := checkout.NewService(
		resolver.New(pgCatalog),
		pricing.NewCalculator(taxRate, enforceMinimum),
		repo,
		pgCatalog,
		pgCatalog,
		cache.NewRedisBatchCache(redisClient),
	)

	// Outbox poller
	var wg sync.WaitGroup
	poller := publisher.NewOutboxPoller(repo, kafkaBrokers...)
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(pollerCtx)
	}()

	// HTTP server
	server := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      api.NewRouter(service, requestTimeout),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		slog.Info("http server listening", "port", httpPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}

	pollerCancel()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		slog.Warn("outbox poller did not stop in time")
	}
	if err := poller.Close(); err != nil {
		slog.Error("kafka writer close failed", "error", err)
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Error("tracer shutdown failed", "error", err)
	}
	slog.Info("stopped")
}
