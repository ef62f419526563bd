package http

import (
	"github.com/gin-gonic/gin"
	"github.com/productadvisor/backend/config"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/:id", handler.GetProduct)
		}

		v1.POST("/recommendations", handler.Recommend)

		sessions := v1.Group("/sessions/:session_id")
		{
			sessions.GET("/results/latest", handler.LatestResult)

			sessions.GET("/favorites", handler.ListFavorites)
			sessions.DELETE("/favorites", handler.ClearFavorites)
			sessions.PUT("/favorites/:product_id", handler.AddFavorite)
			sessions.DELETE("/favorites/:product_id", handler.RemoveFavorite)
			sessions.POST("/favorites/:product_id/toggle", handler.ToggleFavorite)
		}
	}

	return router
}
