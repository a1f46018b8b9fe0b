package reconciliation_api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bankrecon-engine/internal/reconciliation_api/handler"
	"github.com/bankrecon-engine/internal/reconciliation_api/middleware"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	pinger Pinger,
	accountHandler *handler.AccountHandler,
	ingestionHandler *handler.IngestionHandler,
	reconciliationHandler *handler.ReconciliationHandler,
) {
	// CorrelationID must run before Logger so request logs carry the ID
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Account configuration and input ingestion
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("/:id", accountHandler.GetByID)
			accounts.POST("/:id/deactivate", accountHandler.Deactivate)
			accounts.POST("/:id/statements", ingestionHandler.ImportStatement)
			accounts.POST("/:id/transactions", ingestionHandler.CreateTransaction)
			accounts.GET("/:id/reports", reconciliationHandler.ListReports)
		}

		// Reconciliation run lifecycle
		reconciliations := v1.Group("/reconciliations")
		{
			reconciliations.POST("", reconciliationHandler.Start)
			reconciliations.GET("/:id", reconciliationHandler.GetByID)
			reconciliations.POST("/:id/approve", reconciliationHandler.Approve)
			reconciliations.POST("/:id/cancel", reconciliationHandler.Cancel)
			reconciliations.POST("/:id/matches", reconciliationHandler.CreateMatch)
			reconciliations.GET("/:id/matches", reconciliationHandler.ListMatches)
			reconciliations.GET("/:id/discrepancies", reconciliationHandler.ListDiscrepancies)
			reconciliations.GET("/:id/suggestions", reconciliationHandler.ListSuggestions)
			reconciliations.GET("/:id/report", reconciliationHandler.GetReport)
		}
	}

	// Health check endpoint for monitoring. Reports not-ready when the
	// system of record is unreachable.
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := pinger.Ping(ctx); err != nil {
			logger.Error("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "timestamp": time.Now().UTC()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
