package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/noah-isme/admitguard-api/api/swagger"
	"github.com/noah-isme/admitguard-api/internal/handler"
	"github.com/noah-isme/admitguard-api/internal/repository"
	"github.com/noah-isme/admitguard-api/internal/router"
	"github.com/noah-isme/admitguard-api/internal/service"
	"github.com/noah-isme/admitguard-api/pkg/cache"
	"github.com/noah-isme/admitguard-api/pkg/config"
	"github.com/noah-isme/admitguard-api/pkg/database"
	"github.com/noah-isme/admitguard-api/pkg/logger"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if serveMigrate {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			return err
		}
		logr.Info("migrations applied", zap.Strings("versions", applied))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, batch cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	candidateRepo := repository.NewCandidateRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "admitguard:")

	tokens, err := service.NewTokenService(service.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Algorithm:  cfg.JWT.Algorithm,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	if err != nil {
		return fmt.Errorf("init token service: %w", err)
	}
	hasher := service.NewPasswordHasher(0)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Batches.CacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, tokens, hasher, auditRepo, metrics, validate, logr)
	userSvc := service.NewUserService(userRepo, hasher, auditRepo, validate, logr)
	batchSvc := service.NewBatchService(batchRepo, cacheSvc, metrics, cfg.Batches.Visibility, validate, logr)
	candidateSvc := service.NewCandidateService(candidateRepo, metrics, validate, logr)
	exportSvc := service.NewExportService(candidateRepo, nil, nil, metrics, logr)

	var cachePinger handler.Pinger
	if redisClient != nil {
		cachePinger = handler.PingerFunc(cacheRepo.Ping)
	}

	engine := router.New(router.Dependencies{
		Config:     cfg,
		Logger:     logr,
		Metrics:    metrics,
		Tokens:     tokens,
		Batches:    batchSvc,
		Audit:      auditRepo,
		Auth:       handler.NewAuthHandler(authSvc),
		Users:      handler.NewUserHandler(userSvc),
		Batch:      handler.NewBatchHandler(batchSvc),
		Candidates: handler.NewCandidateHandler(candidateSvc, exportSvc),
		Rules:      handler.NewRulesHandler(),
		Health:     handler.NewHealthHandler(db, cachePinger, metrics),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("visibility", cfg.Batches.Visibility))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}
