// server/cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equipment-requests-api-server/config"
	"equipment-requests-api-server/internal/api/handlers"
	"equipment-requests-api-server/internal/api/routes"
	"equipment-requests-api-server/internal/auth"
	"equipment-requests-api-server/internal/database"
	"equipment-requests-api-server/internal/models"
	"equipment-requests-api-server/internal/s3"
	"equipment-requests-api-server/internal/service"
	"equipment-requests-api-server/internal/session"
	"equipment-requests-api-server/internal/sharepoint"
	"equipment-requests-api-server/internal/socket"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	logger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.SharePoint.SiteURL == "" {
		logger.Fatal("sharepoint.siteURL is required")
	}

	ctx := context.Background()

	mongoClient, db, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background())

	users := database.NewUserRepository(db)
	auditLog := database.NewAuditLog(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to create user indexes", zap.Error(err))
	}
	if err := auditLog.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to create audit indexes", zap.Error(err))
	}
	if err := database.SeedBootstrapAccount(ctx, users, cfg.Bootstrap, logger); err != nil {
		logger.Fatal("Failed to seed bootstrap account", zap.Error(err))
	}

	conn := sharepoint.NewConn(cfg.SharePoint, logger.Named("sharepoint"))
	stores := func(sess models.SessionContext) service.Store { return conn.Store(sess) }

	hub := socket.NewHub(logger.Named("socket"))

	requests := service.NewRequestService(stores, logger.Named("requests")).
		WithAuditor(auditLog).
		WithNotifier(hub).
		WithMaxConcurrentWrites(cfg.SharePoint.MaxConcurrentWrites)

	// Report export stays off until a bucket is configured.
	var uploader service.Uploader
	s3Uploader, err := s3.NewUploader(ctx, cfg.S3)
	switch {
	case err == nil:
		uploader = s3Uploader
	case errors.Is(err, s3.ErrNotConfigured):
		logger.Info("S3 bucket not configured, report export disabled")
	default:
		logger.Fatal("Failed to create S3 uploader", zap.Error(err))
	}
	reports := service.NewReportService(stores, uploader, logger.Named("reports"))

	router := routes.SetupRouter(routes.Deps{
		Config: cfg,
		Logger: logger,
		Tokens: auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TokenTTL()),
		Users:  users,
		Directory: func(sess models.SessionContext) handlers.SiteDirectory {
			return conn.Store(sess)
		},
		Requests: requests,
		Reports:  reports,
		Audit:    auditLog,
		Registry: session.NewRegistry(),
		Hub:      hub,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting API server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapCfg.Level = level

	return zapCfg.Build()
}
