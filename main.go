package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/freelance-market-api/config"
	"github.com/kendall-kelly/freelance-market-api/controllers"
	"github.com/kendall-kelly/freelance-market-api/middleware"
	"github.com/kendall-kelly/freelance-market-api/services"
)

func main() {
	log.Println("Starting Freelance Marketplace API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.ConnectDatabase(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := config.Migrate(config.GetDB()); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	services.InitStripeProcessor(cfg.StripeSecretKey)

	if cfg.UsesS3() {
		s3Service, err := services.InitS3Service(context.Background(), cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3: %v", err)
		}
		services.InitImageService(s3Service)
		log.Printf("Service images are stored in S3 bucket %s", cfg.AWSS3Bucket)
	} else {
		services.InitLocalImageService(cfg.UploadDir)
		log.Printf("Service images are stored on disk in %s", cfg.UploadDir)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg)

	addr := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the engine with every route of the API
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(corsConfig(cfg)))

	// Payment endpoints called by the checkout page and the processor
	api := router.Group("/api")
	{
		api.POST("/create-payment-intent", controllers.CreatePaymentIntent)
		api.POST("/webhooks/stripe", controllers.StripeWebhook)
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		// Public catalog
		v1.GET("/services", controllers.ListServices)
		v1.GET("/services/:id", controllers.GetService)
		v1.GET("/uploads/:filename", controllers.GetUploadedImage)

		// Browsers cannot set headers on a websocket upgrade
		v1.GET("/messages/ws",
			middleware.EnsureValidToken(cfg, middleware.WithQueryToken()),
			controllers.MessageStream,
		)

		protected := v1.Group("")
		protected.Use(middleware.EnsureValidToken(cfg))
		{
			protected.POST("/users", controllers.CreateUser)
			protected.GET("/users/me", controllers.GetMyProfile)
			protected.PATCH("/users/me", controllers.UpdateMyProfile)

			protected.POST("/services", controllers.CreateService)
			protected.PATCH("/services/:id", controllers.UpdateService)
			protected.DELETE("/services/:id", controllers.DeleteService)
			protected.POST("/services/:id/images", controllers.UploadServiceImage)

			protected.POST("/orders", controllers.CreateOrder)
			protected.GET("/orders", controllers.ListOrders)
			protected.GET("/orders/analytics", controllers.GetOrderAnalytics)
			protected.GET("/orders/:id", controllers.GetOrder)
			protected.PUT("/orders/:id/status", controllers.UpdateOrderStatus)
			protected.POST("/orders/:id/accept", controllers.AcceptOrder)
			protected.POST("/orders/:id/decline", controllers.DeclineOrder)
			protected.POST("/orders/:id/complete", controllers.CompleteOrder)
			protected.POST("/orders/:id/dispute", controllers.DisputeOrder)

			protected.POST("/messages", controllers.SendMessage)
			protected.GET("/messages/conversations/:userId", controllers.ListConversation)
			protected.GET("/messages/groups/:groupId", controllers.ListGroupMessages)
			protected.POST("/messages/:id/read", controllers.MarkMessageRead)
		}
	}

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
		return corsCfg
	}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			corsCfg.AllowAllOrigins = true
			corsCfg.AllowCredentials = false
			return corsCfg
		}
	}
	corsCfg.AllowOrigins = cfg.AllowedOrigins
	return corsCfg
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Freelance Marketplace API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"dialect": strings.ToLower(db.Dialector.Name()),
		"tables":  tables,
	})
}
