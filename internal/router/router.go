package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopauth-backend/config"
	"github.com/ikkim/shopauth-backend/internal/app/controller"
	"github.com/ikkim/shopauth-backend/internal/metrics"
	"github.com/ikkim/shopauth-backend/internal/middleware"
)

type Router struct {
	authController *controller.AuthController
	authMiddleware *middleware.AuthMiddleware
	metrics        *metrics.Metrics
	config         *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	authMiddleware *middleware.AuthMiddleware,
	m *metrics.Metrics,
	cfg *config.Config,
) *Router {
	return &Router{
		authController: authController,
		authMiddleware: authMiddleware,
		metrics:        m,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))
	if r.metrics != nil {
		router.Use(r.metrics.Middleware())
		router.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "shop auth API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", r.authController.Signup)
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.POST("/reset", r.authController.RequestPasswordReset)
			auth.GET("/reset/:token", r.authController.ValidateResetToken)
			auth.POST("/reset/:token", r.authController.ResetPassword)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
