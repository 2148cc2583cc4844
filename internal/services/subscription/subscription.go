// Package services содержит бизнес-логику управления тарифными планами и
// выставления счетов при назначении клиентов.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// CreateSubscription добавляет подписку с набором клиентов.
	CreateSubscription(ctx context.Context, sub models.Subscription) (string, error)
	// ReadSubscription возвращает подписку по ID вместе со списком клиентов.
	ReadSubscription(ctx context.Context, id string) (*models.Subscription, error)
	// ListSubscriptions возвращает все подписки, сначала новые.
	ListSubscriptions(ctx context.Context) ([]*models.Subscription, error)
	// UpdateSubscription обновляет подписку и её набор клиентов.
	UpdateSubscription(ctx context.Context, sub models.Subscription, id string) (int, error)
	// RemoveSubscription удаляет подписку по ID.
	RemoveSubscription(ctx context.Context, id string) (int, error)
	// CountExistingClients возвращает число существующих клиентов из списка.
	CountExistingClients(ctx context.Context, ids []string) (int, error)
}

// InvoiceCreator выставляет счёт клиенту по подписке.
type InvoiceCreator interface {
	CreateForSubscription(ctx context.Context, sub *models.Subscription, clientID string) (*models.Invoice, error)
}

// SubscriptionService реализует бизнес-логику работы с подписками.
type SubscriptionService struct {
	repo     SubscriptionRepository
	invoices InvoiceCreator
	log      *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, invoices InvoiceCreator,
	log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:     repo,
		invoices: invoices,
		log:      log,
	}
}

func parseDates(req models.DummySubscription) (time.Time, *time.Time, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("invalid start date: %w", err)
	}
	var endDate *time.Time
	if req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("invalid end date: %w", err)
		}
		if parsed.Before(startDate) {
			return time.Time{}, nil, fmt.Errorf("end date must not be earlier than start date")
		}
		endDate = &parsed
	}
	return startDate, endDate, nil
}

// Create создает подписку и выставляет по счету каждому назначенному
// клиенту. Неудача выставления одного счета не откатывает подписку и не
// мешает счетам остальных клиентов.
func (s *SubscriptionService) Create(ctx context.Context, username string, req models.DummySubscription) (string, error) {
	startDate, endDate, err := parseDates(req)
	if err != nil {
		return "", err
	}

	if len(req.Clients) > 0 {
		count, err := s.repo.CountExistingClients(ctx, req.Clients)
		if err != nil {
			return "", err
		}
		if count != len(req.Clients) {
			return "", fmt.Errorf("unknown client in list")
		}
	}

	sub := models.Subscription{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Price:       req.Price,
		Duration:    req.Duration,
		Description: req.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		ClientIDs:   req.Clients,
		CreatedBy:   username,
	}

	id, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return "", err
	}
	sub.ID = id
	s.log.Info("created new subscription", slog.String("id", id))

	for _, clientID := range sub.ClientIDs {
		if _, err := s.invoices.CreateForSubscription(ctx, &sub, clientID); err != nil {
			s.log.Error("failed to create invoice for client",
				slog.String("client_id", clientID), sl.Err(err))
		}
	}

	return id, nil
}

// Read возвращает подписку по ID.
func (s *SubscriptionService) Read(ctx context.Context, id string) (*models.Subscription, error) {
	return s.repo.ReadSubscription(ctx, id)
}

// List возвращает все подписки.
func (s *SubscriptionService) List(ctx context.Context) ([]*models.Subscription, error) {
	return s.repo.ListSubscriptions(ctx)
}

// Update обновляет подписку и её набор клиентов. Новые счета при этом не
// выставляются: счета создаются только при создании подписки.
func (s *SubscriptionService) Update(ctx context.Context, req models.DummySubscription, id string) (int, error) {
	startDate, endDate, err := parseDates(req)
	if err != nil {
		return 0, err
	}

	if len(req.Clients) > 0 {
		count, err := s.repo.CountExistingClients(ctx, req.Clients)
		if err != nil {
			return 0, err
		}
		if count != len(req.Clients) {
			return 0, fmt.Errorf("unknown client in list")
		}
	}

	sub := models.Subscription{
		Name:        req.Name,
		Price:       req.Price,
		Duration:    req.Duration,
		Description: req.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		ClientIDs:   req.Clients,
	}
	return s.repo.UpdateSubscription(ctx, sub, id)
}

// Remove удаляет подписку по ID.
func (s *SubscriptionService) Remove(ctx context.Context, id string) (int, error) {
	return s.repo.RemoveSubscription(ctx, id)
}
