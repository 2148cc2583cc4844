// Package scheduler собирает приложение планировщика: ежедневная проверка
// просроченных счетов и еженедельные рассылки по расписаниям из базы.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/billing-manager/internal/config"
	"github.com/magabrotheeeer/billing-manager/internal/rabbitmq"
	schedulerservice "github.com/magabrotheeeer/billing-manager/internal/services/scheduler"
	"github.com/magabrotheeeer/billing-manager/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	conn             *amqp.Connection
	ch               *amqp.Channel
	db               *repository.Storage
	logger           *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetMailQueues())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	schedulerService := schedulerservice.NewSchedulerService(db, db, ch, logger)

	return &App{
		schedulerService: schedulerService,
		conn:             conn,
		ch:               ch,
		db:               db,
		logger:           logger,
	}, nil
}

// Run запускает планировщик и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := a.schedulerService.Start(ctx)

	a.logger.Info("scheduler shutting down gracefully")
	if cerr := a.ch.Close(); cerr != nil {
		a.logger.Error("failed to close channel", slog.Any("err", cerr))
	}
	if cerr := a.conn.Close(); cerr != nil {
		a.logger.Error("failed to close connection", slog.Any("err", cerr))
	}
	a.db.DB.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
