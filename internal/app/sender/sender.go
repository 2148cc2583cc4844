// Package sender собирает приложение-воркер отправки писем: потребляет
// почтовые задачи из очередей и отправляет письма через SMTP.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/billing-manager/internal/config"
	"github.com/magabrotheeeer/billing-manager/internal/lib/smtp"
	"github.com/magabrotheeeer/billing-manager/internal/pdf"
	"github.com/magabrotheeeer/billing-manager/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/billing-manager/internal/services/sender"
	"github.com/magabrotheeeer/billing-manager/internal/storage/repository"
)

// App представляет приложение-воркер отправки писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	db            *repository.Storage
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New создает новый экземпляр воркера отправки.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
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

	transport := smtp.NewTransport(cfg, logger)
	renderer := pdf.NewInvoiceRenderer()
	senderService := senderservice.NewSenderService(db, renderer, transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		db:            db,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителей всех почтовых очередей и блокируется до
// отмены контекста.
func (a *App) Run(ctx context.Context) error {
	consumers := []struct {
		queue   string
		handler func(context.Context, []byte) error
	}{
		{rabbitmq.QueueInvoice, a.senderService.HandleInvoiceTask},
		{rabbitmq.QueueReminder, a.senderService.HandleReminderTask},
		{rabbitmq.QueueBroadcast, a.senderService.HandleBroadcastTask},
		{rabbitmq.QueueSystem, a.senderService.HandleSystemTask},
	}

	for _, c := range consumers {
		handler := c.handler
		err := rabbitmq.ConsumerMessage(ctx, a.ch, c.queue, func(body []byte) error {
			return handler(ctx, body)
		})
		if err != nil {
			a.logger.Error("failed to start consumer",
				slog.String("queue", c.queue), slog.Any("err", err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	a.db.DB.Close()

	return nil
}
