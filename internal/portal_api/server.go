package portal_api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/community-billing-ledger/internal/config"
	"github.com/community-billing-ledger/internal/portal_api/handler"
	"github.com/community-billing-ledger/internal/portal_api/service"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// Services bundles the application services the portal exposes
type Services struct {
	Community service.CommunityService
	Unit      service.UnitService
	Balance   service.BalanceService
	Ledger    service.LedgerService
	Expense   service.ExpenseService
	Report    service.ReportService
	Audit     service.AuditService
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	communityHandler := handler.NewCommunityHandler(log, services.Community)
	unitHandler := handler.NewUnitHandler(log, services.Unit)
	balanceHandler := handler.NewBalanceHandler(log, services.Balance)
	ledgerHandler := handler.NewLedgerHandler(log, services.Ledger)
	expenseHandler := handler.NewExpenseHandler(log, services.Expense)
	reportHandler := handler.NewReportHandler(log, services.Report)
	auditHandler := handler.NewAuditHandler(log, services.Audit)

	setupRouter(log, httpRouter, communityHandler, unitHandler, balanceHandler, ledgerHandler, expenseHandler, reportHandler, auditHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	// Use server's write timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
