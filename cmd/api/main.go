package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/booking"
	"github.com/01moynul/fitstudio-golang/internal/config"
	"github.com/01moynul/fitstudio-golang/internal/database"
	"github.com/01moynul/fitstudio-golang/internal/events"
	"github.com/01moynul/fitstudio-golang/internal/handlers"
	"github.com/01moynul/fitstudio-golang/internal/metrics"
	"github.com/01moynul/fitstudio-golang/internal/notify"
	"github.com/01moynul/fitstudio-golang/internal/routes"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)
	logger.Info("starting fitstudio api", slog.String("env", cfg.Env))

	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Database Connection ---
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.InitSchema(ctx); err != nil {
			logger.Error("failed to apply schema", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// 2. --- Redis (rate limiting, notifications) ---
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis not reachable, continuing", slog.Any("error", err))
		}
	}

	// 3. --- Notifier and Event Publisher ---
	var notifier booking.Notifier = notify.Noop{}
	switch cfg.Notifier.Backend {
	case config.NotifierRedis:
		notifier = notify.NewRedisNotifier(rdb, cfg.Notifier.KeyTTL)
	case config.NotifierPubNub:
		notifier = notify.NewPubNubNotifier(cfg.Notifier)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.Kafka, logger)
		if err != nil {
			logger.Error("failed to create kafka publisher", slog.Any("error", err))
			os.Exit(1)
		}
		publisher = kp
	}
	defer publisher.Close()

	metrics.Register()

	// --- Application Setup ---
	svc := booking.NewService(db, logger,
		booking.WithNotifier(notifier),
		booking.WithPublisher(publisher),
	)
	app := &handlers.Handlers{
		DB:       db.DB,
		Bookings: svc,
		Tokens:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Log:      logger,
	}

	// 4. --- Background Worker: expire stale waitlist notifications ---
	if cfg.Waitlist.NotifyTTL > 0 {
		go runWaitlistSweeper(ctx, svc, cfg.Waitlist, logger)
	}

	// --- Router Setup ---
	router := routes.SetupRouter(app, routes.Options{
		AllowedOrigin:      cfg.HTTP.AllowedOrigin,
		Redis:              rdb,
		RateLimitPerMinute: cfg.Redis.RateLimitPerMinute,
		Log:                logger,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	// --- Start Server ---
	errChan := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
	case err := <-errChan:
		logger.Error("http server crashed", slog.Any("error", err))
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to stop http server", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

func runWaitlistSweeper(ctx context.Context, svc *booking.Service, cfg config.Waitlist, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	logger.Info("waitlist sweeper started",
		slog.Duration("notify_ttl", cfg.NotifyTTL),
		slog.Duration("interval", cfg.SweepInterval),
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.ExpireNotified(ctx, cfg.NotifyTTL)
			if err != nil {
				logger.Error("waitlist sweep failed", slog.Any("error", err))
				continue
			}
			if n > 0 {
				logger.Info("expired waitlist notifications", slog.Int("count", n))
			}
		}
	}
}

// configuring the logger
func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
