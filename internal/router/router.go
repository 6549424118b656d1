package router

import (
	"github.com/gin-gonic/gin"

	"github.com/everkeep/lifecycle-management-api/internal/config"
	"github.com/everkeep/lifecycle-management-api/internal/handlers"
	"github.com/everkeep/lifecycle-management-api/internal/middleware"
	"github.com/everkeep/lifecycle-management-api/internal/service"
	"github.com/everkeep/lifecycle-management-api/internal/utils"
)

// SetupRouter configures all API routes
func SetupRouter(
	cfg *config.Config,
	lifecycleService *service.LifecycleService,
	consentService *service.OpeningConsentService,
	deletionService *service.DeletionConsentService,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CorrelationID())
	router.Use(middleware.CORS(&cfg.CORS))

	// Global middleware to extract the acting user from headers
	router.Use(func(c *gin.Context) {
		userID := c.GetHeader("user-id")
		if userID != "" {
			utils.SetContextValue(c, "userID", userID)
		}
		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Create handlers
	lifecycleHandler := handlers.NewLifecycleHandler(lifecycleService)
	consentHandler := handlers.NewConsentHandler(consentService)
	deletionHandler := handlers.NewDeletionHandler(deletionService)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.BasicAuth(&cfg.Security))
	{
		lifecycle := v1.Group("/lifecycle/:creatorId")
		{
			lifecycle.GET("", lifecycleHandler.GetLifecycle)
			lifecycle.POST("/report-death", lifecycleHandler.ReportDeath)
			lifecycle.POST("/cancel-death-report", lifecycleHandler.CancelDeathReport)
			lifecycle.GET("/audit-log", lifecycleHandler.GetAuditTrail)

			// Opening consent round
			lifecycle.POST("/initiate-consent", consentHandler.InitiateConsent)
			lifecycle.POST("/consent", consentHandler.SubmitConsent)
			lifecycle.GET("/consent-status", consentHandler.GetConsentStatus)
			lifecycle.POST("/reset-consent", consentHandler.ResetConsent)

			// Deletion consent round
			lifecycle.POST("/initiate-data-deletion", deletionHandler.InitiateDeletion)
			lifecycle.POST("/deletion-consent", deletionHandler.SubmitDeletionConsent)
			lifecycle.POST("/cancel-data-deletion", deletionHandler.CancelDeletion)
			lifecycle.GET("/deletion-consent-status", deletionHandler.GetDeletionConsentStatus)
		}
	}

	return router
}
