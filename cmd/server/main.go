package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/shopauth-backend/config"
	"github.com/ikkim/shopauth-backend/internal/app/controller"
	"github.com/ikkim/shopauth-backend/internal/app/repository"
	"github.com/ikkim/shopauth-backend/internal/app/service"
	"github.com/ikkim/shopauth-backend/internal/db"
	"github.com/ikkim/shopauth-backend/internal/metrics"
	"github.com/ikkim/shopauth-backend/internal/middleware"
	"github.com/ikkim/shopauth-backend/internal/router"
	"github.com/ikkim/shopauth-backend/internal/scheduler"
	"github.com/ikkim/shopauth-backend/internal/storage"
	"github.com/ikkim/shopauth-backend/pkg/logger"
	"github.com/ikkim/shopauth-backend/pkg/mailer"
	redispkg "github.com/ikkim/shopauth-backend/pkg/redis"
	"github.com/ikkim/shopauth-backend/pkg/util"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting shop auth server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Session blacklist. Without Redis, logout still succeeds but tokens stay
	// valid until they expire.
	var (
		revoker   controller.SessionRevoker
		blacklist middleware.SessionBlacklist
	)
	if err := redispkg.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, session revocation disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer func() {
			if err := redispkg.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
		bl := redispkg.NewBlacklist(redispkg.GetClient())
		revoker, blacklist = bl, bl
	}

	// Outbound mail
	var archive mailer.Archiver
	if cfg.Mail.Archive.Bucket != "" {
		archive = storage.NewS3Storage(context.Background(), &cfg.Mail.Archive)
		logger.Info("Mail archive enabled", map[string]interface{}{
			"bucket": cfg.Mail.Archive.Bucket,
		})
	}
	sender, err := mailer.New(&cfg.Mail, archive)
	if err != nil {
		logger.Fatal("Failed to initialize mailer", err)
	}

	m := metrics.New()

	userRepo := repository.NewUserRepository(db.GetDB())
	authService := service.NewAuthService(
		userRepo,
		util.NewBcryptHasher(),
		util.NewRandomTokenGenerator(),
		sender,
		service.AuthOptions{
			BaseURL:           cfg.Server.BaseURL,
			ResetTokenTTL:     cfg.Auth.ResetTokenTTL,
			MinPasswordLength: cfg.Auth.MinPasswordLength,
			Recorder:          m,
		},
	)

	authController := controller.NewAuthController(authService, revoker, cfg.JWT.Secret, cfg.JWT.SessionExpiry)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, blacklist)

	engine := router.NewRouter(authController, authMiddleware, m, cfg).Setup()

	purge := scheduler.NewResetPurgeScheduler(userRepo, m)
	if err := purge.Start(cfg.Scheduler.ResetPurgeSpec); err != nil {
		logger.Fatal("Failed to start reset ticket purge scheduler", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	purge.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
