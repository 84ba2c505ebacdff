package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ksred/trading-journal/internal/account"
	"github.com/ksred/trading-journal/internal/backup"
	"github.com/ksred/trading-journal/internal/catalog"
	"github.com/ksred/trading-journal/internal/config"
	"github.com/ksred/trading-journal/internal/database"
	"github.com/ksred/trading-journal/internal/journal"
	"github.com/ksred/trading-journal/internal/settings"
	"github.com/ksred/trading-journal/internal/stats"
	"github.com/ksred/trading-journal/internal/tags"
	"github.com/ksred/trading-journal/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the journal API server with graceful shutdown
// support. A store that cannot be opened or migrated is fatal: the server
// must not serve requests against missing or corrupt state.
func main() {
	cfg := config.Load()

	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		zlog.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("Failed to initialize database")
	}

	// Initialize router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimit())

	// Initialize services and handlers
	accountHandlers := account.NewGinHandlers(account.NewService(db))
	journalHandlers := journal.NewGinHandlers(journal.NewService(db))
	catalogHandlers := catalog.NewGinHandlers(catalog.NewService(db))
	tagHandlers := tags.NewGinHandlers(tags.NewService(db))
	settingsHandlers := settings.NewGinHandlers(settings.NewService(db))
	statsHandlers := stats.NewGinHandlers(stats.NewService(db))
	backupHandlers := backup.NewGinHandlers(backup.NewService(db))

	setupRoutes(router, accountHandlers, journalHandlers, catalogHandlers,
		tagHandlers, settingsHandlers, statsHandlers, backupHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()
	zlog.Info().Str("port", cfg.Port).Str("db_path", cfg.DBPath).Msg("journal server started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers, grouped by
// the entity they operate on.
func setupRoutes(
	router *gin.Engine,
	accountHandlers *account.GinHandlers,
	journalHandlers *journal.GinHandlers,
	catalogHandlers *catalog.GinHandlers,
	tagHandlers *tags.GinHandlers,
	settingsHandlers *settings.GinHandlers,
	statsHandlers *stats.GinHandlers,
	backupHandlers *backup.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Account routes
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandlers.CreateAccountHandler())
			accounts.GET("", accountHandlers.ListAccountsHandler())
			accounts.GET("/:account_id", accountHandlers.GetAccountHandler())
			accounts.PUT("/:account_id/balance", accountHandlers.UpdateBalanceHandler())
			accounts.DELETE("/:account_id", accountHandlers.DeleteAccountHandler())

			// Per-account collections
			accounts.POST("/:account_id/transactions", journalHandlers.AddTransactionHandler())
			accounts.GET("/:account_id/transactions", journalHandlers.ListTransactionsHandler())
			accounts.POST("/:account_id/strategies", catalogHandlers.AddStrategyHandler())
			accounts.GET("/:account_id/strategies", catalogHandlers.ListStrategiesHandler())
			accounts.POST("/:account_id/instruments", catalogHandlers.AddInstrumentHandler())
			accounts.GET("/:account_id/instruments", catalogHandlers.ListInstrumentsHandler())
			accounts.POST("/:account_id/tags", tagHandlers.AddDefinitionHandler())
			accounts.GET("/:account_id/tags", tagHandlers.ListDefinitionsHandler())
			accounts.GET("/:account_id/stats", statsHandlers.StatsHandler())
		}

		// Transaction routes
		transactions := v1.Group("/transactions")
		{
			transactions.GET("/:transaction_id", journalHandlers.GetTransactionHandler())
			transactions.PUT("/:transaction_id", journalHandlers.UpdateTransactionHandler())
			transactions.DELETE("/:transaction_id", journalHandlers.DeleteTransactionHandler())
			transactions.PUT("/:transaction_id/notes", journalHandlers.UpdateNotesHandler())
			transactions.POST("/:transaction_id/tags", tagHandlers.AttachTagHandler())
			transactions.GET("/:transaction_id/tags", tagHandlers.ListWithValuesHandler())
		}

		// Catalog deletions
		v1.DELETE("/strategies/:strategy_id", catalogHandlers.DeleteStrategyHandler())
		v1.DELETE("/instruments/:instrument_id", catalogHandlers.DeleteInstrumentHandler())

		// Tag schema routes
		tagGroup := v1.Group("/tags")
		{
			tagGroup.DELETE("/:tag_id", tagHandlers.DeleteDefinitionHandler())
			tagGroup.POST("/:tag_id/fields", tagHandlers.AddFieldHandler())
			tagGroup.GET("/:tag_id/fields", tagHandlers.ListFieldsHandler())
		}
		v1.PUT("/fields/:field_id", tagHandlers.UpdateFieldHandler())
		v1.DELETE("/fields/:field_id", tagHandlers.DeleteFieldHandler())

		// Tag instance routes
		v1.DELETE("/transaction-tags/:transaction_tag_id", tagHandlers.DetachTagHandler())
		v1.POST("/transaction-tags/:transaction_tag_id/values", tagHandlers.AddValueHandler())
		v1.PUT("/tag-values/:value_id", tagHandlers.UpdateValueHandler())

		// Settings routes
		settingsGroup := v1.Group("/settings")
		{
			settingsGroup.PUT("/:key", settingsHandlers.SetHandler())
			settingsGroup.GET("/:key", settingsHandlers.GetHandler())
		}

		// Backup routes
		backupGroup := v1.Group("/backup")
		{
			backupGroup.GET("", backupHandlers.ExportHandler())
			backupGroup.POST("", backupHandlers.ImportHandler())
		}
	}
}
