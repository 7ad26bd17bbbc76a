package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/testimonial-service/internal/api/http"
	"github.com/spec-kit/testimonial-service/internal/api/http/handlers"
	"github.com/spec-kit/testimonial-service/internal/auth"
	"github.com/spec-kit/testimonial-service/internal/config"
	"github.com/spec-kit/testimonial-service/internal/events"
	"github.com/spec-kit/testimonial-service/internal/notification"
	"github.com/spec-kit/testimonial-service/internal/observability"
	"github.com/spec-kit/testimonial-service/internal/persistence"
	"github.com/spec-kit/testimonial-service/internal/repository"
	"github.com/spec-kit/testimonial-service/internal/service"
	"github.com/spec-kit/testimonial-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.Pool == nil {
		logger.Fatal("postgres is required", zap.Error(persistence.ErrPostgresNotConfigured))
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer rdb.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, metrics), logger)

	userRepo := repository.NewUserRepository(pg.Pool)
	testimonialRepo := repository.NewTestimonialRepository(pg.Pool)
	revocationRepo := repository.NewSessionRevocationRepository(rdb.Client)

	mailer := notification.NewEmailJSSender(cfg.Notification, nil)
	if !mailer.Configured() {
		logger.Warn("emailjs credentials missing; password reset requests will fail")
	}

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:       userRepo,
		RevocationRepo: revocationRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	resetService := service.NewPasswordResetService(*cfg, service.PasswordResetDependencies{
		UserRepo:   userRepo,
		Notifier:   mailer,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	testimonialService := service.NewTestimonialService(service.TestimonialDependencies{
		TestimonialRepo: testimonialRepo,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	userService := service.NewUserService(userRepo)

	if cfg.Seed.Enabled() {
		created, err := authService.EnsureAdmin(ctx, cfg.Seed.AdminName, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
		if err != nil {
			logger.Fatal("failed to seed admin", zap.Error(err))
		}
		if created {
			logger.Info("admin account created", zap.String("email", cfg.Seed.AdminEmail))
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    rdb,
		}),
		Auth: handlers.NewAuthHandler(authService, resetService, handlers.CookieSettings{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
		}),
		Testimonials:   handlers.NewTestimonialsHandler(testimonialService),
		Users:          handlers.NewUsersHandler(userService),
		AuthMiddleware: auth.NewAuthMiddleware(authService, cfg.Auth.CookieName),
		Metrics:        metrics,
		StaticDir:      cfg.App.StaticDir,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-listenErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("fiber listen", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
