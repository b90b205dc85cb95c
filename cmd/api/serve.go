package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"accounts-api/internal/config"
	"accounts-api/internal/db"
	"accounts-api/internal/email"
	apihttp "accounts-api/internal/http"
	"accounts-api/internal/metrics"
	"accounts-api/internal/repository"
	"accounts-api/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the accounts HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, _ := zap.NewProduction()
			defer logger.Sync()

			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	accounts, closeStore, err := openAccountStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	resetWindow := cfg.ResetRateWindow()
	var (
		resetLimiter = service.NewMemoryRateLimiter(resetWindow, cfg.ResetRateMax)
		tokenStore   = service.NewMemoryRefreshTokenStore()
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory limiter and token store", zap.Error(err))
		} else {
			resetLimiter = service.NewRedisRateLimiter(redisClient, logger, "reset:rl:", resetWindow, cfg.ResetRateMax)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	hasher := service.NewBcryptHasher(cfg.BcryptCost, cfg.HashConcurrency)
	accountSvc := service.NewAccountService(logger, accounts, hasher, service.AccountServiceOptions{
		ResetLimiter: resetLimiter,
		ResetTTL:     cfg.ResetTokenTTL(),
	})

	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}
	jwtSvc := service.NewJWTService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New("accounts")
	}

	accountHandler := apihttp.NewAccountHandler(logger, accountSvc, m)
	authHandler := apihttp.NewAuthHandler(logger, accountSvc, jwtSvc, emailSender, m, apihttp.AuthHandlerOptions{
		ResetURLBase:         cfg.ResetURLBase,
		UniformResetResponse: cfg.ResetUniformResponse,
	})
	router := apihttp.NewRouter(logger, m, jwtSvc, accountHandler, authHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openAccountStore elige la implementación del repositorio según STORE_DRIVER.
func openAccountStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.AccountRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		if err := db.Ping(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("db ping: %w", err)
		}
		if cfg.AutoMigrate {
			if err := db.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("db migrate: %w", err)
			}
		}
		return repository.NewPgAccountRepository(pool), pool.Close, nil

	case config.StoreDriverMongo:
		repo, err := repository.NewMongoAccountRepository(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := repo.Close(closeCtx); err != nil {
				logger.Warn("mongo disconnect failed", zap.Error(err))
			}
		}
		return repo, closeFn, nil

	default:
		logger.Warn("using in-memory account store, data is lost on restart")
		return repository.NewMemoryAccountRepository(), func() {}, nil
	}
}
