package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/everkeep/lifecycle-management-api/internal/audit"
	"github.com/everkeep/lifecycle-management-api/internal/config"
	"github.com/everkeep/lifecycle-management-api/internal/dao"
	"github.com/everkeep/lifecycle-management-api/internal/database"
	"github.com/everkeep/lifecycle-management-api/internal/notification"
	"github.com/everkeep/lifecycle-management-api/internal/router"
	"github.com/everkeep/lifecycle-management-api/internal/service"
	"github.com/everkeep/lifecycle-management-api/internal/storage"
)

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// Set Gin to release mode by default (can be overridden by GIN_MODE env var)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	logger.WithFields(logrus.Fields{
		"version":    version,
		"build_date": buildDate,
	}).Info("Starting Lifecycle Management API Server...")

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Set log level from config
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	logger.WithFields(logrus.Fields{
		"config_path": configPath,
		"log_level":   logger.GetLevel().String(),
	}).Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.Initialize(&cfg.Database.Lifecycle, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}

	// Verify database connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		logger.WithError(err).Fatal("Database health check failed")
	}

	logger.Info("Database connection established successfully")

	// Initialize DAOs
	lifecycleDAO := dao.NewLifecycleDAO(db)
	membershipDAO := dao.NewFamilyMembershipDAO(db)
	consentDAO := dao.NewConsentRecordDAO(db)
	deletionDAO := dao.NewDeletionConsentRecordDAO(db)
	actionLogDAO := dao.NewActionLogDAO(db)
	lifeRecordDAO := dao.NewLifeRecordDAO(db)

	logger.Info("DAOs initialized successfully")

	// Initialize collaborators
	dispatcher := notification.NewHTTPDispatcher(&cfg.Notification, logger)
	purger := storage.NewHTTPBlobClient(&cfg.Storage, logger)
	auditor := audit.NewAuditor(actionLogDAO, logger)
	authz := service.NewAuthorizationResolver(membershipDAO, logger)

	// Initialize services. The deceased-member resolver sits between the
	// deletion and lifecycle services: reporting a death sweeps the other
	// processes the deceased person votes in.
	deletionService := service.NewDeletionConsentService(
		lifecycleDAO,
		deletionDAO,
		consentDAO,
		lifeRecordDAO,
		actionLogDAO,
		membershipDAO,
		authz,
		auditor,
		purger,
		dispatcher,
		db,
		logger,
	)

	resolver := service.NewDeceasedMemberResolver(
		lifecycleDAO,
		consentDAO,
		deletionDAO,
		membershipDAO,
		auditor,
		deletionService,
		dispatcher,
		db,
		logger,
	)

	lifecycleService := service.NewLifecycleService(
		lifecycleDAO,
		membershipDAO,
		authz,
		auditor,
		resolver,
		dispatcher,
		db,
		logger,
	)

	consentService := service.NewOpeningConsentService(
		lifecycleDAO,
		consentDAO,
		membershipDAO,
		authz,
		auditor,
		dispatcher,
		db,
		logger,
	)

	logger.Info("Services initialized successfully")

	// Setup router
	ginRouter := router.SetupRouter(cfg, lifecycleService, consentService, deletionService)

	// Configure HTTP server
	serverAddr := cfg.Server.GetServerAddress()
	server := &http.Server{
		Addr:           serverAddr,
		Handler:        ginRouter,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"hostname": cfg.Server.Hostname,
			"port":     cfg.Server.Port,
			"addr":     serverAddr,
		}).Info("Starting HTTP server...")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.WithField("address", serverAddr).Info("Server is running")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited gracefully")
}
