package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"atomik.backend/internal/config"
	"atomik.backend/internal/domain/repositories"
	"atomik.backend/internal/infrastructure/datasources/postgres"
	"atomik.backend/internal/infrastructure/models"
	infraRepos "atomik.backend/internal/infrastructure/repositories"
	"atomik.backend/internal/interfaces/http/handlers"
	"atomik.backend/internal/usecases"
	"atomik.backend/pkg/logger"
	"atomik.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = postgres.Open
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	accountRepo, err := buildAccountRepo(cfg)
	if err != nil {
		return err
	}
	ledgerRepo := infraRepos.NewMemoryLedgerRepository()

	transferUsecase := usecases.NewTransferUsecase(accountRepo, ledgerRepo)

	r := newRouter(routeDeps{
		accountHandler:  handlers.NewAccountHandler(accountRepo),
		transferHandler: handlers.NewTransferHandler(transferUsecase),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}

	logger.Info(context.Background(), "Server starting", zap.String("port", cfg.Server.Port))
	return runServer(srv, quit)
}

// runServer serves until the listener fails or a shutdown signal arrives,
// then drains in-flight requests before returning.
func runServer(srv *http.Server, quit <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-quit:
		logger.Info(context.Background(), "Shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// buildAccountRepo picks the account backend: postgres when a database is
// configured, then redis, then the in-memory reference store. All three
// satisfy the same rollback contract, so the rest of the system cannot tell
// them apart.
func buildAccountRepo(cfg *config.Config) (repositories.AccountRepository, error) {
	switch {
	case cfg.Database.Enabled():
		db, err := openDB(cfg.Database.URL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.AutoMigrate(&models.Account{}); err != nil {
			return nil, fmt.Errorf("failed to migrate accounts: %w", err)
		}
		logger.Info(context.Background(), "Using postgres account repository")
		return infraRepos.NewGormAccountRepository(db), nil

	case cfg.Redis.Enabled():
		if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		logger.Info(context.Background(), "Using redis account repository")
		return infraRepos.NewRedisAccountRepository(redis.GetClient()), nil

	default:
		logger.Info(context.Background(), "Using in-memory account repository")
		return infraRepos.NewMemoryAccountRepository(), nil
	}
}
