package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/testcasedb/internal/config"
	"github.com/localnerve/testcasedb/internal/database"
	"github.com/localnerve/testcasedb/internal/handlers"
	"github.com/localnerve/testcasedb/internal/logging"
	"github.com/localnerve/testcasedb/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/localnerve/testcasedb/docs/api" // Swagger docs
)

// @title TestCaseDB API
// @version 1.0.0
// @description Test case management service: projects, test cases, test runs and test plans
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/testcasedb
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

var envFile string

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Run the testcasedb HTTP service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(envFile)
	},
}

func main() {
	rootCmd.Flags().StringVarP(&envFile, "env-file", "f", "", "path to a .env file")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	// Load configuration
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	allocator, err := services.NewAllocator(cfg.IDAllocator, db)
	if err != nil {
		return err
	}
	recorder := services.NewRecorder(db, log, cfg.ActivityTimeout)

	// Create Fiber app
	app := handlers.NewApp(cfg, log)

	// Global middleware
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("testcasedb")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	handlers.Register(app, handlers.Deps{
		Config:    cfg,
		DB:        db,
		Log:       log,
		Activity:  recorder,
		Allocator: allocator,
	})

	// 404 handler
	app.Use(handlers.NotFound)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("gracefully shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	// Start server
	log.Info("starting server",
		zap.String("port", cfg.Port),
		zap.String("database", cfg.DBType),
		zap.String("allocator", cfg.IDAllocator))
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	// Let in-flight activity writes finish before the pool closes
	recorder.Wait()
	log.Info("server stopped")
	return nil
}
