package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"otcbook/internal/advisory"
	"otcbook/internal/config"
	"otcbook/internal/database"
	"otcbook/internal/handlers"
	"otcbook/internal/logger"
	"otcbook/internal/middleware"
	"otcbook/internal/services"
	"otcbook/internal/storage"
	"otcbook/internal/validator"

	_ "otcbook/internal/docs" // Import swagger docs
)

// @title           OTCBook API
// @version         1.0
// @description     OTCBook is a back-office platform for OTC trading desks: trade logging with realized P&L, OP gamification, risk banding, AI-assisted advisory reports, and invoicing.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Object storage for KYC documents, reports, and invoices
	store, err := newStore(appConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	// Advisory model client, absent when disabled or unconfigured
	var completer advisory.Completer
	if appConfig.AdvisoryEnabled && appConfig.AIAPIKey != "" {
		completer = advisory.NewClient(advisory.Options{
			BaseURL: appConfig.AIBaseURL,
			APIKey:  appConfig.AIAPIKey,
			Model:   appConfig.AIModel,
			Timeout: 30 * time.Second,
		})
	}

	// Initialize services
	db := dbManager.DB()
	notificationService := services.NewNotificationService(db)
	badgeService := services.NewBadgeService(db, notificationService)
	pointsService := services.NewPointsService(db, badgeService, notificationService)
	userService := services.NewUserService(db, store, pointsService, notificationService)
	tradeService := services.NewTradeService(db, pointsService)
	advisoryService := services.NewAdvisoryService(db, completer, pointsService,
		appConfig.AIMaxInputChars, appConfig.AIMaxOutputChars)
	reportService := services.NewReportService(db, advisoryService, pointsService, store)
	invoiceService := services.NewInvoiceService(db, store)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	deskHandler := handlers.NewDeskHandler(userService, auditService)
	tradeHandler := handlers.NewTradeHandler(tradeService, auditService)
	gamificationHandler := handlers.NewGamificationHandler(pointsService, badgeService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	advisoryHandler := handlers.NewAdvisoryHandler(advisoryService, reportService, auditService, appConfig.AdvisoryEnabled)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile, KYC, team
	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/kyc", deskHandler.SubmitKYC)
	protected.POST("/team", deskHandler.AddTeamMember)

	// Trade ledger routes
	trades := protected.Group("/trades")
	trades.POST("", tradeHandler.CreateTrade)
	trades.GET("", tradeHandler.GetTrades)
	trades.GET("/pnl", tradeHandler.GetPnLSummary)
	trades.GET("/export", tradeHandler.ExportTrades)
	trades.GET("/:id", tradeHandler.GetTrade)

	// Gamification routes
	protected.GET("/op", gamificationHandler.GetOP)
	protected.GET("/op/history", gamificationHandler.GetOPHistory)
	protected.GET("/badges", gamificationHandler.GetBadges)
	protected.GET("/leaderboard", gamificationHandler.GetLeaderboard)

	// Notification routes
	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.GetNotifications)
	notifications.POST("/:id/read", notificationHandler.MarkNotificationRead)

	// Advisory routes
	advisoryRoutes := protected.Group("/advisory")
	advisoryRoutes.POST("/chat", advisoryHandler.Chat)
	advisoryRoutes.GET("/insights", advisoryHandler.GetInsights)
	advisoryRoutes.POST("/analysis", advisoryHandler.AnalyzeOP)
	advisoryRoutes.POST("/report", advisoryHandler.GenerateReport)

	// Invoice routes
	invoices := protected.Group("/invoices")
	invoices.POST("", invoiceHandler.CreateInvoice)
	invoices.GET("", invoiceHandler.GetInvoices)
	invoices.GET("/:id", invoiceHandler.GetInvoice)

	log.Infof("Starting OTCBook backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}

func newStore(appConfig *config.Config) (storage.Store, error) {
	if appConfig.StorageMode == "cloud" {
		return storage.NewCloudStore(appConfig.StorageCloudName, appConfig.StorageAPIKey, appConfig.StorageAPISecret), nil
	}
	return storage.NewLocalStore(appConfig.StorageLocalDir)
}
