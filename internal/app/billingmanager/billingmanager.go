// Package billingmanager собирает основное HTTP-приложение: хранилище,
// кэш, брокер, бизнес-сервисы и маршруты.
package billingmanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/billing-manager/internal/cache"
	"github.com/magabrotheeeer/billing-manager/internal/config"
	"github.com/magabrotheeeer/billing-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/billing-manager/internal/lib/password"
	"github.com/magabrotheeeer/billing-manager/internal/migrations"
	"github.com/magabrotheeeer/billing-manager/internal/models"
	"github.com/magabrotheeeer/billing-manager/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/billing-manager/internal/services/auth"
	clientservice "github.com/magabrotheeeer/billing-manager/internal/services/client"
	dashboardservice "github.com/magabrotheeeer/billing-manager/internal/services/dashboard"
	emailservice "github.com/magabrotheeeer/billing-manager/internal/services/email"
	invoiceservice "github.com/magabrotheeeer/billing-manager/internal/services/invoice"
	schedulerservice "github.com/magabrotheeeer/billing-manager/internal/services/scheduler"
	subscriptionservice "github.com/magabrotheeeer/billing-manager/internal/services/subscription"
	"github.com/magabrotheeeer/billing-manager/internal/storage/repository"
)

// App хранит ресурсы основного HTTP-приложения.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New строит приложение: подключает базу, накатывает миграции, засевает
// шаблоны напоминаний и администратора, подключает Redis и RabbitMQ и
// регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		db.DB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err = seed(ctx, db, cfg); err != nil {
		db.DB.Close()
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		db.DB.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		db.DB.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetMailQueues())
	if err != nil {
		conn.Close()
		db.DB.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	company := models.CompanyProfile{
		Name:    cfg.CompanyName,
		Logo:    cfg.CompanyLogo,
		Email:   cfg.CompanyEmail,
		Phone:   cfg.CompanyPhone,
		Address: cfg.CompanyAddress,
	}

	maker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, maker, ch, logger)
	clientService := clientservice.NewClientService(db, cacheRedis, logger)
	invoiceService := invoiceservice.NewInvoiceService(db, ch, company, logger)
	subscriptionService := subscriptionservice.NewSubscriptionService(db, invoiceService, logger)
	emailService := emailservice.NewEmailService(db, db, db, db, logger)
	schedulerService := schedulerservice.NewSchedulerService(db, db, ch, logger)
	dashboardService := dashboardservice.NewDashboardService(db, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, db, &Services{
		Auth:         authService,
		Client:       clientService,
		Invoice:      invoiceService,
		Subscription: subscriptionService,
		Email:        emailService,
		Scheduler:    schedulerService,
		Dashboard:    dashboardService,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// seed создаёт недостающие шаблоны напоминаний и учётную запись
// администратора из конфигурации.
func seed(ctx context.Context, db *repository.Storage, cfg *config.Config) error {
	if err := db.SeedReminderTemplates(ctx, models.DefaultReminderTemplates()); err != nil {
		return err
	}
	if cfg.AdminPassword == "" {
		return nil
	}
	hash, err := password.GetHash(cfg.AdminPassword)
	if err != nil {
		return err
	}
	return db.UpsertUser(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
	})
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.ch.Close(); cerr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", cerr))
		}
		if cerr := a.conn.Close(); cerr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", cerr))
		}
		a.db.DB.Close()
		return err
	}
}
