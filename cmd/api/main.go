package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"meetapp/config"
	_ "meetapp/docs"
	"meetapp/internal/adapters/auth"
	"meetapp/internal/adapters/cache"
	"meetapp/internal/adapters/email"
	"meetapp/internal/adapters/queue"
	"meetapp/internal/clock"
	deliveryhttp "meetapp/internal/delivery/http"
	"meetapp/internal/delivery/http/controllers"
	"meetapp/internal/delivery/http/middleware"
	"meetapp/internal/domain"
	"meetapp/internal/repository/postgres"
	"meetapp/internal/services"
	"meetapp/migrations"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
	emitTimeout     = 15 * time.Second
)

//go:generate swag init --dir ./,../../internal/delivery/http/controllers,../../internal/delivery/http/helpers,../../internal/domain --generalInfo main.go --output ../../docs --outputTypes go

// @title Meetapp API
// @version 1.0
// @description Schedules meetups and admits attendees without calendar conflicts.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(startupCtx); err != nil {
		return err
	}
	if err := migrations.Apply(startupCtx, db); err != nil {
		return err
	}
	logger.Info("database ready")

	meetupRepo := postgres.NewMeetupRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(db)
	userRepo := postgres.NewUserRepository(db)
	fileRepo := postgres.NewFileRepository(db)
	txManager := postgres.NewTxManager(db)
	conflicts := services.NewConflictChecker(meetupRepo, subscriptionRepo)
	clk := clock.NewSystem()

	var meetupOpts []services.MeetupServiceOption
	if cfg.Cache.Addr != "" {
		client, err := cache.NewRedisClient(startupCtx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			logger.Warn("redis unavailable, listing cache disabled", "addr", cfg.Cache.Addr, "err", err)
		} else {
			defer client.Close()
			meetupOpts = append(meetupOpts, services.WithListCache(cache.NewMeetupListCache(client, cfg.Cache.TTL)))
		}
	}

	sink, closeSink, err := notificationSink(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()
	emitter := queue.NewAsyncEmitter(sink, cfg.Queue.BufferSize, emitTimeout, logger)

	meetupService := services.NewMeetupService(txManager, meetupRepo, fileRepo, conflicts, clk, logger, cfg.ContextTimeout, meetupOpts...)
	subscriptionService := services.NewSubscriptionService(txManager, meetupRepo, subscriptionRepo, userRepo, conflicts, emitter, clk, logger, cfg.ContextTimeout)

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is empty, tokens are signed with an empty key")
	}
	router := deliveryhttp.NewRouter(
		controllers.NewMeetupController(logger, meetupService),
		controllers.NewSubscriptionController(logger, subscriptionService),
		auth.NewJWT(cfg.JWTSecret),
		logger,
	)
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.AllowedOrigins, router))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", server.Addr, "env", cfg.Environment)
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown", "err", err)
	}
	if err := emitter.Close(shutdownCtx); err != nil {
		logger.Warn("notifications still pending at shutdown", "err", err)
	}
	logger.Info("server stopped")
	return nil
}

// notificationSink publishes notifications to RabbitMQ when a broker URL is
// configured and otherwise mails the organizer from this process.
func notificationSink(cfg *config.Config, logger *slog.Logger) (queue.Sink, func(), error) {
	if cfg.Queue.URL != "" {
		publisher, err := queue.NewPublisher(cfg.Queue.URL, cfg.Queue.Name, logger)
		if err != nil {
			return nil, nil, err
		}
		return publisher, func() { _ = publisher.Close() }, nil
	}
	emailService, err := newEmailService(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("no broker configured, notifications are mailed in-process")
	return queue.SinkFunc(emailService.SendSubscriptionNotice), func() {}, nil
}

func newEmailService(cfg *config.Config, logger *slog.Logger) (domain.EmailService, error) {
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.Region,
			AccessKeyID:        cfg.Email.AccessKeyID,
			SecretAccessKey:    cfg.Email.SecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return nil, err
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	return services.NewEmailService(mailer, renderer, logger), nil
}
