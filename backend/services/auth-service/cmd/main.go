package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/app"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/config"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/controllers"
	auth_repositories "github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/repositories"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/routes"
	"github.com/cleanmatch/mono-repo/backend/services/auth-service/internal/services"
	"github.com/cleanmatch/mono-repo/backend/shared/go-repositories"
	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()
	defer cfg.Close()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	userRepo := repositories.NewUserRepository(application.DB)
	resetCodeRepo := repositories.NewPasswordResetCodeRepository(application.DB)
	rateLimitRepo := auth_repositories.NewRateLimitRepository(application.DB)

	var blacklistRepo auth_repositories.TokenBlacklistRepository
	switch cfg.BlacklistBackend {
	case config.BlacklistBackendRedis:
		blacklistRepo = auth_repositories.NewRedisTokenBlacklistRepository(application.Redis)
	default:
		blacklistRepo = auth_repositories.NewTokenBlacklistRepository(application.DB)
	}

	if err := app.SeedAdmin(context.Background(), cfg, userRepo); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to seed bootstrap admin")
	}

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	jwtService := services.NewJWTService(cfg)
	blacklistService := services.NewTokenBlacklistService(blacklistRepo, jwtService, cfg.BlacklistFailClosed)
	rateLimiterService := services.NewRateLimiterService(rateLimitRepo, cfg)

	authService := services.NewAuthService(userRepo, jwtService, blacklistService, rateLimiterService, cfg)
	passwordResetService := services.NewPasswordResetService(
		userRepo,
		resetCodeRepo,
		rateLimiterService,
		services.NewSendGridEmailSender(cfg),
		cfg,
	)
	adminAccountService := services.NewAdminAccountService(userRepo, blacklistService)

	tokenCleanupService := services.NewTokenCleanupService(blacklistService)
	verificationCleanupService := services.NewVerificationCleanupService(resetCodeRepo)
	rateLimitCleanupService := services.NewRateLimitCleanupService(rateLimitRepo)

	//----------------------------------------------------------------------
	// Controllers & Router
	//----------------------------------------------------------------------
	router := routes.NewRouter(routes.Controllers{
		Auth:          controllers.NewAuthController(authService),
		PasswordReset: controllers.NewPasswordResetController(passwordResetService),
		AdminAccount:  controllers.NewAdminAccountController(adminAccountService),
		Health:        controllers.NewHealthController(application),
	}, authService)

	//----------------------------------------------------------------------
	// Background jobs via cron
	//----------------------------------------------------------------------
	c := app.NewScheduler()

	// blacklist sweep
	_, schErr1 := c.AddFunc(cfg.SweepSchedule, func() {
		if e := tokenCleanupService.CleanupHourly(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled token blacklist sweep failed")
		}
	})
	if schErr1 != nil {
		utils.Logger.WithError(schErr1).Fatal("Failed to schedule token blacklist sweep job")
	}

	// reset codes
	_, schErr2 := c.AddFunc("0 3 * * *", func() {
		if e := verificationCleanupService.CleanupDaily(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled reset-codes cleanup failed")
		}
	})
	if schErr2 != nil {
		utils.Logger.WithError(schErr2).Fatal("Failed to schedule reset-codes cleanup job")
	}

	// rate limit counter cleanup
	_, schErr3 := c.AddFunc("10 3 * * *", func() {
		if e := rateLimitCleanupService.CleanupDaily(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled rate limit counter cleanup failed")
		}
	})
	if schErr3 != nil {
		utils.Logger.WithError(schErr3).Fatal("Failed to schedule rate limit counter cleanup job")
	}

	c.Start()

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           co.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("Failed to start server:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	utils.Logger.Info("Shutting down...")

	// Wait for a running sweep before the pool closes.
	<-c.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.WithError(err).Error("Graceful shutdown failed")
	}
}
