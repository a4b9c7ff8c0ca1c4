package portal_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/community-billing-ledger/internal/portal_api/handler"
	"github.com/community-billing-ledger/internal/portal_api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	communityHandler *handler.CommunityHandler,
	unitHandler *handler.UnitHandler,
	balanceHandler *handler.BalanceHandler,
	ledgerHandler *handler.LedgerHandler,
	expenseHandler *handler.ExpenseHandler,
	reportHandler *handler.ReportHandler,
	auditHandler *handler.AuditHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints; every route requires an authenticated principal
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Principal())
	{
		// Community operations
		communities := v1.Group("/communities")
		{
			communities.POST("", communityHandler.Create)
			communities.GET("", communityHandler.List)
			communities.GET("/:id", communityHandler.GetByID)

			// Opening balance dual-control workflow
			communities.PUT("/:id/balance", balanceHandler.SetOpeningBalance)
			communities.POST("/:id/balance/revisions", balanceHandler.RequestRevision)
			communities.GET("/:id/balance/revisions/pending", balanceHandler.GetPendingRevision)
			communities.POST("/:id/balance/revisions/approve", balanceHandler.ApproveRevision)
			communities.POST("/:id/balance/revisions/reject", balanceHandler.RejectRevision)

			communities.POST("/:id/units", unitHandler.Create)
			communities.GET("/:id/units", unitHandler.ListByCommunity)

			communities.POST("/:id/expenses", expenseHandler.Create)
			communities.GET("/:id/expenses", expenseHandler.ListByPeriod)

			communities.POST("/:id/ledger/backfill", ledgerHandler.Backfill)

			communities.GET("/:id/reports/:year", reportHandler.Year)
			communities.GET("/:id/reports/:year/:month", reportHandler.Month)
		}

		// Unit operations
		units := v1.Group("/units")
		{
			units.GET("/:id", unitHandler.GetByID)
			units.POST("/:id/ledger/generate", ledgerHandler.Generate)
			units.GET("/:id/ledger", ledgerHandler.ListByUnit)
		}

		// Ledger record payment transitions
		ledger := v1.Group("/ledger")
		{
			ledger.POST("/:id/submit", ledgerHandler.Submit)
			ledger.POST("/:id/verify", ledgerHandler.Verify)
		}

		// Portfolio-wide reporting
		v1.GET("/reports/:year/:month", reportHandler.AllCommunities)

		// Audit history
		v1.GET("/audit/:kind/:id", auditHandler.History)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
