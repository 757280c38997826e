package http

import (
	"github.com/gin-gonic/gin"

	"github.com/vervegrand/sentos-sync/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		feed := v1.Group("/feed")
		{
			feed.POST("/analyze", handler.AnalyzeFeed)
		}

		v1.POST("/sync", handler.RunSync)
		v1.GET("/sync/reports", handler.ListReports)
		v1.GET("/sync/reports/:id", handler.GetReport)

		connections := v1.Group("/connections")
		{
			connections.POST("/shopify", handler.TestShopifyConnection)
		}
	}

	return router
}
