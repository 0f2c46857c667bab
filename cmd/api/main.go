package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/carpool/internal/app"
	"github.com/Freeeeeet/carpool/internal/config"
	"github.com/Freeeeeet/carpool/internal/controller"
	"github.com/Freeeeeet/carpool/internal/controller/handlers"
	httpapi "github.com/Freeeeeet/carpool/internal/controller/http"
	"github.com/Freeeeeet/carpool/internal/identity"
	"github.com/Freeeeeet/carpool/internal/notify"
	"github.com/Freeeeeet/carpool/internal/repository"
	"github.com/Freeeeeet/carpool/internal/repository/base"
	"github.com/Freeeeeet/carpool/internal/service"
	"github.com/Freeeeeet/carpool/migrations"
	"github.com/go-redis/redis/v8"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Application stopped with error", zap.Error(err))
	}
	logger.Info("Application stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting carpool API",
		zap.String("environment", cfg.Environment),
		zap.String("addr", cfg.HTTPAddr),
	)

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	logger.Info("Connected to database")

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	migrator.Close()

	// Repositories
	tx := base.NewTransactor(pool)
	userRepo := repository.NewUserRepository(pool)
	rideRepo := repository.NewRideRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	requestRepo := repository.NewPrivateRequestRepository(pool)
	chatRepo := repository.NewChatRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)

	var limiter httpapi.RateLimiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis is not reachable, rate limiting will fail open", zap.Error(err))
		}
		limiter = repository.NewRateLimiter(client, cfg.RateLimitRequests, cfg.RateLimitWindow)
	} else {
		logger.Info("REDIS_ADDR is not set, rate limiting disabled")
	}

	tokens := identity.NewJWTProvider(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	g, ctx := errgroup.WithContext(ctx)

	var tgBot *bot.Bot
	notifier := service.NoopNotifier
	if cfg.TelegramToken != "" {
		tgBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
		tg := notify.NewTelegramNotifier(tgBot, 100, logger)
		notifier = tg
		g.Go(func() error { return tg.Run(ctx) })
	} else {
		logger.Info("TELEGRAM_TOKEN is not set, notifications disabled")
	}

	// Services
	userService := service.NewUserService(userRepo, logger)
	rideService := service.NewRideService(rideRepo, logger)
	bookingService := service.NewBookingService(tx, rideRepo, bookingRepo, userRepo, notifier,
		service.BookingOptions{RestoreSeatsOnCancel: cfg.RestoreSeatsOnCancel}, logger)
	requestService := service.NewPrivateRequestService(tx, requestRepo, rideRepo, service.PrivateRequestOptions{
		TTL:             cfg.PrivateRequestTTL,
		NearbyPrecision: cfg.NearbyPrecision,
	}, logger)
	chatService := service.NewChatService(chatRepo, bookingRepo, rideRepo, requestRepo, logger)
	reviewService := service.NewReviewService(tx, reviewRepo, rideRepo, bookingRepo, userRepo, logger)

	server := httpapi.NewServer(cfg.HTTPAddr, httpapi.Services{
		Users:    userService,
		Rides:    rideService,
		Bookings: bookingService,
		Requests: requestService,
		Chats:    chatService,
		Reviews:  reviewService,
	}, tokens, limiter, logger)

	scheduler := app.NewScheduler(rideService, bookingService, cfg.SchedulerInterval, cfg.RideAutocompleteAfter, logger)

	if tgBot != nil {
		botController := controller.NewBotController(
			tgBot,
			handlers.NewHandlers(tgBot, tokens, userService, rideService, bookingService, logger),
			logger,
		)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Failed to register bot commands", zap.Error(err))
		}
		g.Go(func() error { return botController.Start(ctx) })
	}

	g.Go(func() error { return server.Run(ctx) })
	g.Go(func() error { return scheduler.Run(ctx) })

	return g.Wait()
}
