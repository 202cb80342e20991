package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/toppizza/backend/internal/api"
	"github.com/toppizza/backend/internal/cache"
	"github.com/toppizza/backend/internal/catalog"
	"github.com/toppizza/backend/internal/database"
	"github.com/toppizza/backend/internal/events"
	"github.com/toppizza/backend/internal/jobs"
	"github.com/toppizza/backend/internal/orders"
	"github.com/toppizza/backend/internal/ws"
)

const (
	keepaliveInterval = 10 * time.Minute
	retentionInterval = 24 * time.Hour
	retentionDays     = 30
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	// Database configuration
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "pizza")
	dbPassword := getEnv("DB_PASSWORD", "pizza")
	dbName := getEnv("DB_NAME", "pizza")

	// Optional collaborators
	kafkaBrokers := getEnv("KAFKA_BROKERS", "")
	redisAddr := getEnv("REDIS_ADDR", "")
	keepaliveURL := getEnv("KEEPALIVE_URL", "")

	port := getEnv("PORT", "3000")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	db, err := database.Connect(dsn, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := database.EnsureSchema(db); err != nil {
		logger.WithError(err).Fatal("Failed to create tables")
	}

	var producer *events.Producer
	if kafkaBrokers != "" {
		producer, err = events.NewProducer(kafkaBrokers, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Kafka producer")
		}
		defer producer.Close()
		logger.WithField("brokers", kafkaBrokers).Info("Kafka producer ready")
	} else {
		logger.Info("KAFKA_BROKERS not set, order events disabled")
	}

	var menuCache cache.Cache
	if redisAddr != "" {
		menuCache = cache.NewRedisCache(redisAddr)
		logger.WithField("addr", redisAddr).Info("Menu cache enabled")
	}

	hub := ws.NewHub(logger)
	go hub.Run()

	orderService := orders.NewService(db, producer, hub, logger)
	catalogStore := catalog.NewStore(db, menuCache, logger)
	server := api.New(db, orderService, catalogStore, hub, logger)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background maintenance
	if keepaliveURL != "" {
		go jobs.NewKeepalive(keepaliveURL, keepaliveInterval, logger).Run(ctx)
	} else {
		logger.Info("KEEPALIVE_URL not set, keepalive disabled")
	}
	go jobs.NewRetention(db, retentionInterval, retentionDays, logger).Run(ctx)

	go func() {
		logger.WithField("port", port).Info("Starting pizza server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
