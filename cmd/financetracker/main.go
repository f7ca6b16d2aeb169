package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/amandhiraj/financetracker/internal/amqp"
	"github.com/amandhiraj/financetracker/internal/backend"
	"github.com/amandhiraj/financetracker/internal/cache"
	"github.com/amandhiraj/financetracker/internal/cli"
	apphttp "github.com/amandhiraj/financetracker/internal/http"
	"github.com/amandhiraj/financetracker/internal/log"
	"github.com/amandhiraj/financetracker/internal/services"
	"github.com/amandhiraj/financetracker/internal/session"
	"github.com/amandhiraj/financetracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.Backend)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	sessions := session.NewManager(repo, cfg.SessionTTL, cfg.CookieSecure)

	opts := []services.Option{services.WithLogger(logger.WithComponent(log.ComponentWorkspace))}

	// Event publishing is optional; the web client works without a broker.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WithComponent(log.ComponentAMQP).Warn("AMQP unavailable, transaction events will not be published",
				log.FieldError, err)
			amqpClient = nil
		} else {
			opts = append(opts, services.WithPublisher(amqpClient))
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	}

	workspaces := services.NewRegistry(result.Backend, cfg.WorkspaceCacheSize, cfg.WorkspaceCacheTTL, opts...)

	caches := cache.NewManager()
	caches.Register(workspaces.Cleaner())
	caches.StartCleanup(time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Backend:            result.Backend,
		Sessions:           sessions,
		Workspaces:         workspaces,
		Store:              repo,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	// Mutations wait for the backend call plus the refresh that follows it.
	srv.WriteTimeout = 3*cfg.BackendTimeout + 5*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close session database", log.FieldError, err)
		}
	})

	go worker.NewSessionSweeper(repo, cfg.SessionSweepInterval).Run(ctx)

	logger.Info("Starting financetracker server",
		"port", cfg.Port,
		"backend", cfg.Backend,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
