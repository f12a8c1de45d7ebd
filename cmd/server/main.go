package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/bank-atm-ledger/internal/atm"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/audit"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/config"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/events/kafka"
	atm_http "github.com/sheikh-saqib/bank-atm-ledger/internal/handler/http/atm"
	interfaces "github.com/sheikh-saqib/bank-atm-ledger/internal/interfaces"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/logger"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/bank-atm-ledger/internal/storage/postgres"
)

func openPostgres(ctx context.Context, dsn string, appLogger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	maxRetries := 10
	retryDelay := 3 * time.Second
	for i := 0; i < maxRetries; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return db, nil
		}
		appLogger.Warn("Database not ready, retrying",
			zap.Int("attempt", i+1), zap.Int("max_attempts", maxRetries),
			zap.Duration("delay", retryDelay), zap.Error(err))
		time.Sleep(retryDelay)
	}
	db.Close()
	return nil, fmt.Errorf("ping postgres after %d attempts: %w", maxRetries, err)
}

func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()
	appLogger.Info("ATM service starting...", zap.String("audit_store", cfg.AuditStore))

	ctx := context.Background()

	var store interfaces.AuditStore
	switch cfg.AuditStore {
	case config.AuditStorePostgres:
		db, err := openPostgres(ctx, cfg.GetDBConnectionString(), appLogger)
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				appLogger.Error("Error closing database connection", zap.Error(err))
			}
		}()

		pgStore := postgres.NewPostgresAuditStore(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			appLogger.Fatal("Failed to create audit schema", zap.Error(err))
		}
		store = pgStore
		appLogger.Info("Using PostgreSQL audit store")
	default:
		store = memory.NewMemoryAuditStore()
		appLogger.Info("Using in-memory audit store")
	}

	var publisher interfaces.EventPublisher
	if cfg.KafkaEnabled {
		kafkaPublisher := kafka.NewPublisher(
			cfg.GetKafkaBrokers(),
			cfg.KafkaAuditTopic,
			logger.Component(appLogger, "KafkaPublisher"),
		)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				appLogger.Error("Error closing Kafka publisher", zap.Error(err))
			} else {
				appLogger.Info("Kafka publisher closed.")
			}
		}()
		publisher = kafkaPublisher
		appLogger.Info("Kafka publisher created.", zap.String("topic", cfg.KafkaAuditTopic))
	}

	auditLog := audit.NewLog(store)
	if err := auditLog.Resume(ctx); err != nil {
		appLogger.Fatal("Failed to resume audit log", zap.Error(err))
	}
	bank := atm.NewATM(auditLog, publisher, logger.Component(appLogger, "ATM"))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	atm_http.RegisterRoutes(router, bank, appLogger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	appLogger.Info("Shutting down application...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		appLogger.Info("HTTP server gracefully shut down.")
	}
}
