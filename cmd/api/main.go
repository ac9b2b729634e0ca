package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "bankrecon/docs"
	"bankrecon/internal/config"
	"bankrecon/internal/handler"
	"bankrecon/internal/middleware"
	"bankrecon/internal/repository"
	"bankrecon/internal/service"
	"bankrecon/pkg/logger"
)

// @title Bank Reconciliation API
// @version 1.0
// @description API for reconciling bank and mobile money statements against internal payable records
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@bankrecon.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.Engine.LogLevel)
	logger.GetLogger().Info("Starting Bank Reconciliation Service")

	// Connect to database
	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	logger.GetLogger().Info("Database connection established")

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	exceptionRepo := repository.NewExceptionRepository(db)
	payableRepo := repository.NewPayableRepository(db)

	// Initialize services
	exceptionService := service.NewExceptionService(exceptionRepo, txRepo, cfg.Engine)
	accountService := service.NewAccountService(accountRepo)
	ruleService := service.NewRuleService(ruleRepo)
	importService := service.NewImportService(accountRepo, txRepo, batchRepo, exceptionService)
	matchService := service.NewMatchService(txRepo, matchRepo)
	matchingService := service.NewMatchingService(
		accountRepo, txRepo, ruleRepo, matchRepo, payableRepo,
		matchService, exceptionService, cfg.Engine,
	)
	periodService := service.NewPeriodService(accountRepo, txRepo, periodRepo)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountService, matchingService)
	importHandler := handler.NewImportHandler(importService)
	ruleHandler := handler.NewRuleHandler(ruleService)
	matchingHandler := handler.NewMatchingHandler(matchingService)
	matchHandler := handler.NewMatchHandler(matchService)
	periodHandler := handler.NewPeriodHandler(periodService)
	exceptionHandler := handler.NewExceptionHandler(exceptionService)

	// Setup router
	router := setupRouter(
		accountHandler, importHandler, ruleHandler, matchingHandler,
		matchHandler, periodHandler, exceptionHandler,
	)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.GetLogger().WithField("address", addr).Info("Server starting")

	if err := router.Run(addr); err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to start server")
	}
}

func connectDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func setupRouter(
	accountHandler *handler.AccountHandler,
	importHandler *handler.ImportHandler,
	ruleHandler *handler.RuleHandler,
	matchingHandler *handler.MatchingHandler,
	matchHandler *handler.MatchHandler,
	periodHandler *handler.PeriodHandler,
	exceptionHandler *handler.ExceptionHandler,
) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Account routes
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.CreateAccount)
			accounts.GET("/:account_id/balance", accountHandler.GetBalance)
			accounts.GET("/:account_id/transactions/unmatched", accountHandler.ListUnmatched)
		}

		// Statement import routes
		imports := v1.Group("/imports")
		{
			imports.POST("", importHandler.Import)
			imports.GET("/:batch_id", importHandler.GetBatch)
		}

		// Matching rule routes
		rules := v1.Group("/rules")
		{
			rules.POST("", ruleHandler.CreateRule)
			rules.GET("", ruleHandler.ListRules)
			rules.GET("/:rule_id", ruleHandler.GetRule)
		}

		// Matching pass routes
		matching := v1.Group("/matching")
		{
			matching.POST("/run", matchingHandler.RunMatching)
		}

		// Match routes
		matches := v1.Group("/matches")
		{
			matches.POST("/manual", matchHandler.ApplyManualMatch)
			matches.POST("/:match_id/unmatch", matchHandler.Unmatch)
		}

		// Transaction flag routes
		transactions := v1.Group("/transactions")
		{
			transactions.POST("/:transaction_id/dispute", matchHandler.Dispute)
			transactions.POST("/:transaction_id/ignore", matchHandler.Ignore)
			transactions.POST("/:transaction_id/reopen", matchHandler.Reopen)
		}

		// Reconciliation period routes
		periods := v1.Group("/periods")
		{
			periods.POST("", periodHandler.OpenPeriod)
			periods.GET("/:period_id", periodHandler.GetPeriod)
			periods.POST("/:period_id/close", periodHandler.ClosePeriod)
			periods.POST("/:period_id/review", periodHandler.ReviewPeriod)
		}

		// Exception routes
		exceptions := v1.Group("/exceptions")
		{
			exceptions.GET("", exceptionHandler.ListExceptions)
			exceptions.POST("/sweep", exceptionHandler.SweepMissingMatches)
			exceptions.POST("/:exception_id/resolve", exceptionHandler.ResolveException)
		}
	}

	return router
}
