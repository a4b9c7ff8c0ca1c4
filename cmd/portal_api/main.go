package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/community-billing-ledger/internal/billing"
	"github.com/community-billing-ledger/internal/config"
	"github.com/community-billing-ledger/internal/data/mongo"
	"github.com/community-billing-ledger/internal/data/postgres"
	"github.com/community-billing-ledger/internal/logger"
	"github.com/community-billing-ledger/internal/platform/messaging/producers"
	"github.com/community-billing-ledger/internal/platform/persistence"
	"github.com/community-billing-ledger/internal/portal_api"
	"github.com/community-billing-ledger/internal/portal_api/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("portal_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for backfill requests
	kafkaProducer, err := producers.NewBackfillReqMessageProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize backfill Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	communityRepo := postgres.NewCommunityRepository(log, postgresDB)
	unitRepo := postgres.NewUnitRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	expenseRepo := postgres.NewExpenseRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())

	// Initialize the period generator used by synchronous generation
	generator := billing.NewGenerator(log, communityRepo, unitRepo, ledgerRepo, outboxRepo)

	// Initialize services
	services := portal_api.Services{
		Community: service.NewCommunityService(log, communityRepo, outboxRepo),
		Unit:      service.NewUnitService(log, unitRepo, communityRepo, outboxRepo),
		Balance:   service.NewBalanceService(log, postgresDB, communityRepo, outboxRepo),
		Ledger:    service.NewLedgerService(log, generator, ledgerRepo, unitRepo, outboxRepo, kafkaProducer),
		Expense:   service.NewExpenseService(log, expenseRepo, communityRepo, outboxRepo),
		Report:    service.NewReportService(log, communityRepo, ledgerRepo, expenseRepo),
		Audit:     service.NewAuditService(log, auditRepo),
	}

	// Initialize REST server
	server := portal_api.NewServer(log, cfg, services)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
