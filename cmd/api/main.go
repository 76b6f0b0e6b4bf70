package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"csi-api/internal/config"
	"csi-api/internal/db"
	"csi-api/internal/email"
	apihttp "csi-api/internal/http"
	"csi-api/internal/metrics"
	"csi-api/internal/repository"
	"csi-api/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	var (
		userRepo repository.UserRepository
		testRepo repository.TestSessionRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		userRepo = repository.NewPgUserRepository(pool)
		testRepo = repository.NewPgTestSessionRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		userRepo = repository.NewMemoryUserRepository()
		testRepo = repository.NewMemoryTestSessionRepository()
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	resetLimiter := service.NewRateLimiter(cfg.PasswordResetTTL(), cfg.PasswordResetMaxPerTTL)
	verifyLimiter := service.NewRateLimiter(cfg.PasswordResetTTL(), cfg.PasswordResetMaxAttempts)
	var tokenStore service.RefreshTokenStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory token store", zap.Error(err))
		} else {
			resetLimiter = service.NewRedisRateLimiter(redisClient, "csi:reset:req:", cfg.PasswordResetTTL(), cfg.PasswordResetMaxPerTTL)
			verifyLimiter = service.NewRedisRateLimiter(redisClient, "csi:reset:verify:", cfg.PasswordResetTTL(), cfg.PasswordResetMaxAttempts)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL(), cfg.JWTRefreshTTL(), tokenStore)
	m := metrics.New()

	userSvc := service.NewUserService(logger, userRepo, emailSender, resetLimiter, verifyLimiter, cfg.PasswordResetTTL())
	scoringSvc := service.NewScoringService(logger)
	testSvc := service.NewTestSessionService(logger, testRepo, scoringSvc, m)

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Logger:         logger,
		JWT:            jwtSvc,
		Users:          apihttp.NewUserHandler(logger, userSvc, jwtSvc),
		Tests:          apihttp.NewTestHandler(logger, testSvc),
		Registry:       m.Registry(),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.AppEnv))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
