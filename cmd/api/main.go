package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/authcraft/account-service/internal/http/handlers"
	imw "github.com/authcraft/account-service/internal/http/middleware"
	"github.com/authcraft/account-service/internal/mailer"
	"github.com/authcraft/account-service/internal/repo/postgres"
	"github.com/authcraft/account-service/internal/service"
	"github.com/authcraft/account-service/pkg/config"
	"github.com/authcraft/account-service/pkg/database"
	"github.com/authcraft/account-service/pkg/events"
	"github.com/authcraft/account-service/pkg/logger"
	mw "github.com/authcraft/account-service/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Connect to redis for OTP rate limiting
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)

	// Initialize mailer
	mail := newMailer(cfg)

	// Initialize services
	accountService := service.NewAccountService(userRepo, eventBus, cfg)
	otpService := service.NewOTPService(userRepo, mail, eventBus, cfg)

	// Initialize handlers
	h := handlers.New(accountService, otpService, cfg)

	limiter := imw.NewRateLimiter(redisClient, imw.RateLimitConfig{
		Requests: 5,
		Window:   time.Minute,
		KeyFunc:  imw.ClientIPKeyFunc,
	})

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("accounts"))
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.Health)

	r.Mount("/", h.Routes(limiter))

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down account service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Account service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting account service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Account service error", "error", err)
		os.Exit(1)
	}
}

func newMailer(cfg *config.Config) mailer.Service {
	switch {
	case cfg.Email.DevMode:
		return mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	default:
		return mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
	}
}
