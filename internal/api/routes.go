package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/api/handlers"
	"github.com/finlens/macrobeta-go/internal/config"
	"github.com/finlens/macrobeta-go/internal/database"
	"github.com/finlens/macrobeta-go/internal/services"
)

// SetupRoutes registers the health endpoint and the v1 API surface,
// constructing handlers from the services built in main.
func SetupRoutes(
	router *gin.Engine,
	db *database.PostgresDB,
	store *database.FactStore,
	cfg *config.Config,
	analysisService *services.AnalysisService,
	trendService *services.TrendService,
	scenarioService *services.ScenarioService,
	ingestionService *services.IngestionService,
	leversService services.LeverSource,
	uploadService *services.UploadService,
	fundamentals services.StatementsProvider,
	logger *logrus.Logger,
) {
	// Assign through a nil check so a missing database stays a nil
	// interface rather than a typed nil that dodges the handler's guard.
	var dbChecker handlers.DatabaseHealthChecker
	if db != nil {
		dbChecker = db
	}
	healthHandler := handlers.NewHealthHandler(dbChecker, cfg, logger)
	router.GET("/health", healthHandler.Check)

	uploadHandler := handlers.NewUploadHandler(uploadService, leversService, logger)
	leversHandler := handlers.NewLeversHandler(leversService, logger)
	companyHandler := handlers.NewCompanyHandler(store, ingestionService, fundamentals, logger)
	macroHandler := handlers.NewMacroHandler(store, ingestionService, logger)
	analysisHandler := handlers.NewAnalysisHandler(analysisService, trendService, cfg.Analysis, logger)
	scenarioHandler := handlers.NewScenarioHandler(scenarioService, logger)

	v1 := router.Group("/api/v1")
	{
		// CSV upload and what-if analysis
		upload := v1.Group("/upload")
		{
			upload.POST("", uploadHandler.Upload)
			upload.POST("/preview", uploadHandler.Preview)
			upload.POST("/analyze", uploadHandler.Analyze)
		}

		// Macro lever values
		levers := v1.Group("/levers")
		{
			levers.POST("", leversHandler.SetLevers)
			levers.GET("/auto", leversHandler.GetAutoLevers)
		}

		// Company fundamentals
		company := v1.Group("/company")
		{
			company.GET("/:symbol", companyHandler.GetLiveFinancials)
			company.POST("/:symbol/ingest", companyHandler.IngestCompany)
			company.GET("/:symbol/data", companyHandler.GetStoredData)
		}

		// Macro series
		macro := v1.Group("/macro")
		{
			macro.POST("/:seriesID/ingest", macroHandler.IngestMacro)
			macro.GET("/:seriesID", macroHandler.GetStoredSeries)
		}

		// Beta and trend analysis
		analysis := v1.Group("/analysis")
		{
			analysis.POST("/beta", analysisHandler.ComputeBeta)
			analysis.GET("/beta/:symbol", analysisHandler.GetBeta)
			analysis.GET("/trend/revenue/:symbol", analysisHandler.GetRevenueTrend)
		}

		// Scenario projections
		scenario := v1.Group("/scenario")
		{
			scenario.GET("/matrix/:symbol", scenarioHandler.GetMatrix)
			scenario.POST("/interest-shock", scenarioHandler.InterestShock)
		}
	}
}
