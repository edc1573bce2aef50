package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"dashworth/internal/currency"
	"dashworth/internal/handlers"
	"dashworth/internal/logger"
	"dashworth/internal/middleware"
	"dashworth/internal/models"
	"dashworth/internal/services"
	"dashworth/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// offlineRates pins conversions to the fallback table so the tests never
// reach the network.
type offlineRates struct{}

func (offlineRates) Current(context.Context) currency.Rates { return currency.Fallback }

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite. The history recorder is left out: history timing has its own unit
// tests and would only make these flows slow.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	rates := offlineRates{}

	// Services
	settingsService := services.NewSettingsService(db, rates, nil)
	categoryService := services.NewCategoryService(db)
	assetService := services.NewAssetService(db, rates, nil)
	dashboardService := services.NewDashboardService(db, rates, settingsService)
	snapshotService := services.NewSnapshotService(db, rates, settingsService)
	goalService := services.NewGoalService(db, rates)
	portfolioService := services.NewPortfolioService(db, categoryService, settingsService)

	if _, err := settingsService.Get(); err != nil {
		t.Fatalf("failed to initialize settings: %v", err)
	}

	// Handlers
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	assetHandler := handlers.NewAssetHandler(assetService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	snapshotHandler := handlers.NewSnapshotHandler(snapshotService)
	goalHandler := handlers.NewGoalHandler(goalService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	v1.GET("/dashboard", dashboardHandler.GetValuation)
	v1.GET("/history", dashboardHandler.GetHistory)

	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.POST("/reorder", categoryHandler.Reorder)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

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

	snapshots := v1.Group("/snapshots")
	snapshots.POST("", snapshotHandler.CreateSnapshot)
	snapshots.POST("/run-automatic", snapshotHandler.RunAutomatic)
	snapshots.GET("", snapshotHandler.GetSnapshots)
	snapshots.GET("/:id", snapshotHandler.GetSnapshotByID)
	snapshots.DELETE("/:id", snapshotHandler.DeleteSnapshot)

	goals := v1.Group("/goals")
	goals.GET("", goalHandler.GetGoals)
	goals.POST("", goalHandler.CreateGoal)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.POST("/:id/celebrate", goalHandler.Celebrate)

	v1.GET("/settings", settingsHandler.GetSettings)
	v1.PUT("/settings", settingsHandler.UpdateSettings)

	portfolio := v1.Group("/portfolio")
	portfolio.GET("/export", portfolioHandler.Export)
	portfolio.POST("/import", portfolioHandler.Import)
	portfolio.DELETE("", portfolioHandler.DeleteAll)
	portfolio.POST("/sample-data", portfolioHandler.LoadSampleData)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// createCategory creates a category and returns its id.
func (app *testApp) createCategory(t *testing.T, name string, liability bool) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"is_liability":%v}`, name, liability)
	rec := app.request("POST", "/api/v1/categories", body)
	if rec.Code != 201 {
		t.Fatalf("create category failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["category"].(map[string]interface{})["id"].(string)
}

// createAsset creates a manual asset and returns its id.
func (app *testApp) createAsset(t *testing.T, name, categoryID, currencyCode string, value float64) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"category_id":%q,"currency":%q,"current_value":%v}`,
		name, categoryID, currencyCode, value)
	rec := app.request("POST", "/api/v1/assets", body)
	if rec.Code != 201 {
		t.Fatalf("create asset failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["asset"].(map[string]interface{})["id"].(string)
}
