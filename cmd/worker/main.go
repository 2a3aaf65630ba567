package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-storefront/internal/database"
	"github.com/hugh/go-storefront/internal/mail"
	"github.com/hugh/go-storefront/internal/tasks"
	"github.com/hugh/go-storefront/pkg/config"
	"github.com/hugh/go-storefront/pkg/crypto"
	"github.com/hugh/go-storefront/pkg/queue"
	"github.com/hugh/go-storefront/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env, "worker")
	slog.SetDefault(logger)

	logger.Info("starting storefront worker", "concurrency", cfg.Worker.Concurrency)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var encryptor *crypto.Encryptor
	if cfg.Encryption.Key != "" {
		encryptor, err = crypto.NewEncryptor(cfg.Encryption.Key)
		if err != nil {
			logger.Error("failed to create encryptor", "error", err)
			os.Exit(1)
		}
	}

	dispatcher, err := mail.NewDispatcher(mail.NewSMTPTransport(&cfg.Mail), cfg.Mail.From)
	if err != nil {
		logger.Error("failed to create mail dispatcher", "error", err)
		os.Exit(1)
	}
	notifier := mail.NewNotifier(dispatcher, cfg.Mail.BaseURL, cfg.Mail.FrontendURL)

	srv := queue.NewServer(&cfg.Redis, cfg.Worker.Concurrency, logger)

	handler := tasks.NewHandler(db, logger, encryptor, notifier)
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	scheduler := queue.NewScheduler(&cfg.Redis)
	entryID, err := scheduler.Register(cfg.Tokens.PurgeCron, tasks.NewPurgeExpiredTokensTask())
	if err != nil {
		logger.Error("failed to schedule token purge", "cron", cfg.Tokens.PurgeCron, "error", err)
		os.Exit(1)
	}
	logger.Info("token purge scheduled", "cron", cfg.Tokens.PurgeCron, "entry_id", entryID)

	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	if err := srv.Start(mux); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	logger.Info("worker started, waiting for tasks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()

	if err := database.Close(db); err != nil {
		logger.Error("failed to close database", "error", err)
	}

	logger.Info("worker stopped")
}
