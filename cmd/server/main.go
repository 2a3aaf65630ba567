package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hugh/go-storefront/internal/admin"
	"github.com/hugh/go-storefront/internal/api"
	"github.com/hugh/go-storefront/internal/api/middleware"
	"github.com/hugh/go-storefront/internal/auth"
	"github.com/hugh/go-storefront/internal/database"
	"github.com/hugh/go-storefront/internal/events"
	"github.com/hugh/go-storefront/internal/mail"
	"github.com/hugh/go-storefront/internal/products"
	"github.com/hugh/go-storefront/internal/tasks"
	"github.com/hugh/go-storefront/pkg/config"
	"github.com/hugh/go-storefront/pkg/crypto"
	"github.com/hugh/go-storefront/pkg/queue"
	"github.com/hugh/go-storefront/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env, "server")
	slog.SetDefault(logger)

	logger.Info("starting storefront server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis unavailable, sending mail in-process", "error", err)
		redisClient.Close()
		redisClient = nil
	}

	var encryptor *crypto.Encryptor
	if cfg.Encryption.Key != "" {
		encryptor, err = crypto.NewEncryptor(cfg.Encryption.Key)
		if err != nil {
			logger.Error("failed to create encryptor", "error", err)
			os.Exit(1)
		}
	} else if redisClient != nil {
		logger.Warn("ENCRYPTION_KEY not set, queued mail payloads are stored in plain text")
	}

	// With Redis, events become asynq tasks for cmd/worker. Without it they
	// are delivered by an in-process bus.
	var (
		publisher   events.Publisher
		limiter     middleware.Limiter
		authLimiter middleware.Limiter
		closers     []func()
	)
	if redisClient != nil {
		queueClient := queue.NewClient(&cfg.Redis)
		closers = append(closers, func() { queueClient.Close() })

		publisher = tasks.NewPublisher(queueClient, encryptor, logger)
		limiter = middleware.NewRedisLimiter(redisClient, "ratelimit:global", cfg.RateLimit.Requests, cfg.RateLimit.WindowSeconds)
		authLimiter = middleware.NewRedisLimiter(redisClient, "ratelimit:auth", cfg.RateLimit.AuthRequests, cfg.RateLimit.WindowSeconds)
	} else {
		dispatcher, err := mail.NewDispatcher(mail.NewSMTPTransport(&cfg.Mail), cfg.Mail.From)
		if err != nil {
			logger.Error("failed to create mail dispatcher", "error", err)
			os.Exit(1)
		}
		notifier := mail.NewNotifier(dispatcher, cfg.Mail.BaseURL, cfg.Mail.FrontendURL)

		bus := events.NewBus(logger)
		for _, kind := range []events.Kind{
			events.KindAccountRegistered,
			events.KindEmployeeInvited,
			events.KindPasswordResetRequested,
		} {
			bus.Subscribe(kind, notifier.Handle)
		}
		closers = append(closers, bus.Close)
		publisher = bus

		memLimiter := middleware.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.WindowSeconds)
		memAuthLimiter := middleware.NewMemoryLimiter(cfg.RateLimit.AuthRequests, cfg.RateLimit.WindowSeconds)
		closers = append(closers, memLimiter.Close, memAuthLimiter.Close)
		limiter, authLimiter = memLimiter, memAuthLimiter
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService, publisher, logger, auth.Config{
		ActivationTTL: cfg.Tokens.ActivationTTL(),
		ResetTTL:      cfg.Tokens.ResetTTL(),
	})
	productService := products.NewService(db, logger)
	adminService := admin.NewService(db, publisher, logger, cfg.Tokens.InvitationTTL())

	router := api.NewRouter(api.RouterConfig{
		DB:             db,
		Redis:          redisClient,
		Logger:         logger,
		JWTService:     jwtService,
		AuthService:    authService,
		ProductService: productService,
		AdminService:   adminService,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SecureCookies:  !cfg.Server.IsDevelopment(),
		Limiter:        limiter,
		AuthLimiter:    authLimiter,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Closing the bus waits for in-flight mail.
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}

	if redisClient != nil {
		redisClient.Close()
	}

	if err := database.Close(db); err != nil {
		logger.Error("failed to close database", "error", err)
	}

	logger.Info("server stopped")
}
