// api/router.go
package api

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/schemaforge/schemaforge/api/handlers"
	"github.com/schemaforge/schemaforge/api/middleware"
	"github.com/schemaforge/schemaforge/config"
)

// SetupRouter configures the Gin engine: global middleware, route groups,
// and handler wiring.
func SetupRouter(metaDB *sql.DB, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-API-Key")
	router.Use(cors.New(corsConfig))

	// Centralized error mapping; handlers attach errors via c.Error.
	router.Use(middleware.ErrorHandler())

	authHandler := handlers.NewAuthHandler(metaDB, cfg)
	schemaHandler := handlers.NewSchemaHandler(metaDB, cfg)
	recordHandler := handlers.NewRecordHandler(metaDB, cfg)
	collectionAuthHandler := handlers.NewCollectionAuthHandler(metaDB, cfg)
	notificationHandler := handlers.NewNotificationHandler(metaDB)
	adminHandler := handlers.NewAdminHandler(metaDB, cfg)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Credential endpoints get a brute-force limiter on top of everything.
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	authRoutes := router.Group("/auth")
	authRoutes.Use(middleware.RateLimitMiddleware(loginLimiter))
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/signin", authHandler.Signin)
		authRoutes.POST("/google", authHandler.GoogleAuth)
		authRoutes.POST("/test-connection", authHandler.TestConnection)
	}

	sessionRoutes := router.Group("/auth")
	sessionRoutes.Use(middleware.SessionAuth(cfg))
	{
		sessionRoutes.GET("/me", authHandler.Me)
		sessionRoutes.POST("/set-password", authHandler.SetPassword)
		sessionRoutes.POST("/rotate-key", authHandler.RotateKey)
	}

	schemaRoutes := router.Group("/schemas")
	schemaRoutes.Use(middleware.SessionAuth(cfg))
	{
		schemaRoutes.POST("", schemaHandler.CreateSchema)
		schemaRoutes.GET("", schemaHandler.ListSchemas)
		schemaRoutes.GET("/:id", schemaHandler.GetSchema)
		schemaRoutes.PUT("/:id", schemaHandler.UpdateSchema)
		schemaRoutes.DELETE("/:id", schemaHandler.DeleteSchema)
	}

	notificationRoutes := router.Group("/notifications")
	notificationRoutes.Use(middleware.SessionAuth(cfg))
	{
		notificationRoutes.GET("", notificationHandler.List)
		notificationRoutes.GET("/unread-count", notificationHandler.UnreadCount)
		notificationRoutes.PUT("/read-all", notificationHandler.MarkAllRead)
		notificationRoutes.PUT("/:id/read", notificationHandler.MarkRead)
		notificationRoutes.DELETE("/:id", notificationHandler.Delete)
	}

	adminRoutes := router.Group("/admin")
	adminRoutes.Use(middleware.SessionAuth(cfg), middleware.AdminRequired())
	{
		adminRoutes.GET("/stats", adminHandler.Stats)
		adminRoutes.GET("/users", adminHandler.ListUsers)
		adminRoutes.GET("/users/:id", adminHandler.GetUser)
		adminRoutes.PUT("/users/:id/toggle-status", adminHandler.ToggleStatus)
		adminRoutes.POST("/users/:id/revoke-api-key", adminHandler.RevokeAPIKey)
		adminRoutes.POST("/users/:id/reset-quota", adminHandler.ResetQuota)
		adminRoutes.GET("/api-usage", adminHandler.APIUsage)
	}

	// Generated endpoints: API-key plane, metered against the monthly quota.
	apiRoutes := router.Group("/api")
	apiRoutes.Use(middleware.APIKeyAuth(metaDB), middleware.QuotaGuard(metaDB, cfg))
	{
		apiRoutes.GET("/:collection", recordHandler.List)
		apiRoutes.POST("/:collection", recordHandler.Create)
		apiRoutes.GET("/:collection/:id", recordHandler.Get)
		apiRoutes.PUT("/:collection/:id", recordHandler.Update)
		apiRoutes.DELETE("/:collection/:id", recordHandler.Delete)

		apiRoutes.POST("/:collection/auth/signup", collectionAuthHandler.Signup)
		apiRoutes.POST("/:collection/auth/signin", collectionAuthHandler.Signin)
	}

	return router
}
