package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"dashworth/internal/autoupdate"
	"dashworth/internal/config"
	"dashworth/internal/currency"
	"dashworth/internal/database"
	"dashworth/internal/handlers"
	"dashworth/internal/history"
	"dashworth/internal/logger"
	"dashworth/internal/middleware"
	"dashworth/internal/oracle"
	"dashworth/internal/services"
	"dashworth/internal/validator"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(appConfig.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	db := dbManager.DB()

	httpClient := &http.Client{Timeout: 15 * time.Second}
	rates := currency.NewClient(httpClient, appConfig.RatesURL, appConfig.RefreshInterval)
	priceOracle := oracle.NewDefault(httpClient, appConfig.CoinGeckoURL, appConfig.YahooChartURL, appConfig.PriceCacheTTL)

	recorder := history.NewRecorder(db, appConfig.HistoryDebounce)
	defer recorder.Close()

	// Initialize services
	settingsService := services.NewSettingsService(db, rates, recorder)
	categoryService := services.NewCategoryService(db)
	assetService := services.NewAssetService(db, rates, recorder)
	dashboardService := services.NewDashboardService(db, rates, settingsService)
	snapshotService := services.NewSnapshotService(db, rates, settingsService)
	goalService := services.NewGoalService(db, rates)
	portfolioService := services.NewPortfolioService(db, categoryService, settingsService)

	if _, err := settingsService.Get(); err != nil {
		return fmt.Errorf("failed to initialize settings: %w", err)
	}
	if err := categoryService.SeedDefaults(); err != nil {
		return fmt.Errorf("failed to seed default categories: %w", err)
	}

	// Background refresh: prices immediately and on the interval, plus the
	// automatic snapshot cadence check on the same schedule.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updater := autoupdate.New(db, priceOracle, rates, recorder)
	go updater.Schedule(ctx, appConfig.RefreshInterval)
	go func() {
		if _, err := snapshotService.RunAutomatic(ctx, time.Now()); err != nil {
			log.Warnw("startup snapshot check failed", "error", err.Error())
		}
	}()

	// Initialize handlers
	validator.Register()
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	assetHandler := handlers.NewAssetHandler(assetService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotService)
	goalHandler := handlers.NewGoalHandler(goalService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	marketHandler := handlers.NewMarketHandler(priceOracle)

	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware: the web client is served from its own dev port.
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Dashboard routes
	v1.GET("/dashboard", dashboardHandler.GetValuation)
	v1.GET("/history", dashboardHandler.GetHistory)

	// Category routes
	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.POST("/reorder", categoryHandler.Reorder)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Asset routes
	assets := v1.Group("/assets")
	assets.POST("", assetHandler.CreateAsset)
	assets.GET("", assetHandler.GetAssets)
	assets.GET("/changes", assetHandler.GetAllChanges)
	assets.GET("/:id", assetHandler.GetAssetByID)
	assets.PUT("/:id", assetHandler.UpdateAsset)
	assets.POST("/:id/quick-update", assetHandler.QuickUpdate)
	assets.POST("/:id/archive", assetHandler.SetArchived)
	assets.DELETE("/:id", assetHandler.DeleteAsset)
	assets.GET("/:id/changes", assetHandler.GetChanges)

	// Snapshot routes
	snapshots := v1.Group("/snapshots")
	snapshots.POST("", snapshotHandler.CreateSnapshot)
	snapshots.POST("/run-automatic", snapshotHandler.RunAutomatic)
	snapshots.GET("", snapshotHandler.GetSnapshots)
	snapshots.GET("/:id", snapshotHandler.GetSnapshotByID)
	snapshots.DELETE("/:id", snapshotHandler.DeleteSnapshot)

	// Goal routes
	goals := v1.Group("/goals")
	goals.GET("", goalHandler.GetGoals)
	goals.POST("", goalHandler.CreateGoal)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.POST("/:id/celebrate", goalHandler.Celebrate)

	// Settings routes
	v1.GET("/settings", settingsHandler.GetSettings)
	v1.PUT("/settings", settingsHandler.UpdateSettings)

	// Portfolio routes
	portfolio := v1.Group("/portfolio")
	portfolio.GET("/export", portfolioHandler.Export)
	portfolio.POST("/import", portfolioHandler.Import)
	portfolio.DELETE("", portfolioHandler.DeleteAll)
	portfolio.POST("/sample-data", portfolioHandler.LoadSampleData)

	// Market data routes
	v1.GET("/market/lookup", marketHandler.Lookup)

	log.Infof("Starting dashworth server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
