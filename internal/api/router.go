package api

import (
	"context"
	"net/http"
	"time"

	"github.com/content-platform-api/internal/auth"
	"github.com/content-platform-api/internal/config"
	"github.com/content-platform-api/internal/service"
	"github.com/content-platform-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	log.Debug().Str("origins", joinOrigins(cfg.Server.AllowedOrigins)).Msg("CORS configured")

	// Handlers
	commentHandler := NewCommentHandler(services, log)
	requireAuth := authMiddleware(auth.NewVerifier(cfg.Auth.JWTSecret), log)
	throttle := rateLimitMiddleware(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	// Health check
	router.GET("/health", healthCheck(services))
	router.GET("/metrics", metricsHandler(services))

	api := router.Group("/api")
	{
		comments := api.Group("/comments")
		{
			comments.GET("/article/:articleId", commentHandler.ListTopLevel)
			comments.GET("/:id", commentHandler.GetWithReplies)

			comments.POST("", throttle, requireAuth, commentHandler.Create)
			comments.PUT("/:id", throttle, requireAuth, commentHandler.Update)
			comments.DELETE("/:id", throttle, requireAuth, commentHandler.Delete)
		}
	}

	return router
}

// healthCheck returns the health status; 503 when the store is unreachable
func healthCheck(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code := "healthy", http.StatusOK
		if err := services.Stats.Ping(ctx); err != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   logger.ServiceName,
		})
	}
}

// metricsHandler returns store counters
func metricsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCount, _ := services.Stats.GetCount(ctx, "users")
		commentsCount, _ := services.Stats.GetCount(ctx, "comments")

		c.JSON(http.StatusOK, gin.H{
			"database": gin.H{
				"users":    usersCount,
				"comments": commentsCount,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}
