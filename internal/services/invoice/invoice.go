// Package services содержит бизнес-логику выставления счетов: нумерацию,
// расчёт длительности и сроков оплаты, постановку задач на отправку.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
	"github.com/magabrotheeeer/billing-manager/internal/models"
	"github.com/magabrotheeeer/billing-manager/internal/rabbitmq"
)

// DueDays срок оплаты счета в днях с даты выставления.
const DueDays = 30

// InvoiceRepository определяет методы для работы со счетами в хранилище.
type InvoiceRepository interface {
	// NextInvoiceSequence выдаёт следующий порядковый номер счета в году.
	NextInvoiceSequence(ctx context.Context, year int) (int, error)
	// CreateInvoice добавляет новый счёт и возвращает его ID.
	CreateInvoice(ctx context.Context, inv models.Invoice) (string, error)
	// ReadInvoice возвращает счёт по ID записи.
	ReadInvoice(ctx context.Context, id string) (*models.Invoice, error)
	// ListInvoices возвращает все счета, сначала новые.
	ListInvoices(ctx context.Context) ([]*models.Invoice, error)
	// UpdateInvoice полностью обновляет счёт по ID.
	UpdateInvoice(ctx context.Context, inv models.Invoice, id string) (int, error)
	// RemoveInvoice удаляет счёт по ID.
	RemoveInvoice(ctx context.Context, id string) (int, error)
	// RemoveInvoiceByNumber удаляет счёт по номеру вида INV-....
	RemoveInvoiceByNumber(ctx context.Context, invoiceID string) (int, error)
}

// InvoiceService реализует бизнес-логику работы со счетами.
type InvoiceService struct {
	repo    InvoiceRepository
	channel rabbitmq.Channel
	company models.CompanyProfile
	log     *slog.Logger
}

// NewInvoiceService создает новый экземпляр InvoiceService.
func NewInvoiceService(repo InvoiceRepository, channel rabbitmq.Channel,
	company models.CompanyProfile, log *slog.Logger) *InvoiceService {
	return &InvoiceService{
		repo:    repo,
		channel: channel,
		company: company,
		log:     log,
	}
}

// DurationToMonths переводит длительность плана в месяцы:
// weekly — 0.25, monthly — 1, yearly — 12. Неизвестные значения считаются
// месячными.
func DurationToMonths(duration string) float64 {
	switch duration {
	case models.DurationWeekly:
		return 0.25
	case models.DurationYearly:
		return 12
	default:
		return 1
	}
}

// FormatInvoiceNumber собирает человекочитаемый номер счета INV-<год>-<NNN>.
// Порядковый номер дополняется нулями до трёх знаков.
func FormatInvoiceNumber(year, seq int) string {
	return fmt.Sprintf("INV-%d-%03d", year, seq)
}

// CreateForSubscription выставляет счёт клиенту по подписке и публикует
// задачу на отправку письма со счетом. Возвращает созданный счёт.
func (s *InvoiceService) CreateForSubscription(ctx context.Context,
	sub *models.Subscription, clientID string) (*models.Invoice, error) {
	now := time.Now()
	year := now.Year()

	seq, err := s.repo.NextInvoiceSequence(ctx, year)
	if err != nil {
		return nil, err
	}

	inv := models.Invoice{
		ID:             uuid.NewString(),
		InvoiceID:      FormatInvoiceNumber(year, seq),
		ClientID:       clientID,
		SubscriptionID: sub.ID,
		DurationMonths: DurationToMonths(sub.Duration),
		PricePerMonth:  sub.Price,
		Currency:       "USD",
		InvoiceDate:    now,
		DueDate:        now.AddDate(0, 0, DueDays),
		Status:         models.InvoiceStatusUnpaid,
		Company:        s.company,
		Notes:          fmt.Sprintf("Thank you for your subscription to %s.", sub.Name),
		CreatedBy:      sub.CreatedBy,
	}

	id, err := s.repo.CreateInvoice(ctx, inv)
	if err != nil {
		return nil, err
	}
	inv.ID = id
	s.log.Info("created invoice",
		slog.String("invoice_id", inv.InvoiceID),
		slog.String("client_id", clientID))

	task := models.InvoiceMailTask{InvoiceID: inv.ID}
	if err := rabbitmq.PublishMessage(s.channel, rabbitmq.MailExchange,
		rabbitmq.RoutingKeyInvoice, task); err != nil {
		// Счёт уже создан, неудачная постановка задачи его не откатывает
		s.log.Error("failed to publish invoice mail task", sl.Err(err))
	}

	return &inv, nil
}

// Create создает счёт вручную из данных запроса и возвращает его ID.
func (s *InvoiceService) Create(ctx context.Context, username string, req models.DummyInvoice) (string, error) {
	invoiceDate, err := time.Parse("2006-01-02", req.InvoiceDate)
	if err != nil {
		return "", fmt.Errorf("invalid invoice date: %w", err)
	}
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return "", fmt.Errorf("invalid due date: %w", err)
	}

	year := invoiceDate.Year()
	seq, err := s.repo.NextInvoiceSequence(ctx, year)
	if err != nil {
		return "", err
	}

	status := req.Status
	if status == "" {
		status = models.InvoiceStatusUnpaid
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	company := s.company
	if req.Company != nil {
		company = *req.Company
	}

	inv := models.Invoice{
		ID:             uuid.NewString(),
		InvoiceID:      FormatInvoiceNumber(year, seq),
		ClientID:       req.Client,
		SubscriptionID: req.Subscription,
		DurationMonths: req.DurationMonths,
		PricePerMonth:  req.PricePerMonth,
		Currency:       currency,
		InvoiceDate:    invoiceDate,
		DueDate:        dueDate,
		Status:         status,
		Company:        company,
		Notes:          req.Notes,
		CreatedBy:      username,
	}

	id, err := s.repo.CreateInvoice(ctx, inv)
	if err != nil {
		return "", err
	}
	s.log.Info("created invoice", slog.String("invoice_id", inv.InvoiceID))

	task := models.InvoiceMailTask{InvoiceID: id}
	if err := rabbitmq.PublishMessage(s.channel, rabbitmq.MailExchange,
		rabbitmq.RoutingKeyInvoice, task); err != nil {
		s.log.Error("failed to publish invoice mail task", sl.Err(err))
	}

	return id, nil
}

// Read возвращает счёт по ID записи.
func (s *InvoiceService) Read(ctx context.Context, id string) (*models.Invoice, error) {
	return s.repo.ReadInvoice(ctx, id)
}

// List возвращает все счета.
func (s *InvoiceService) List(ctx context.Context) ([]*models.Invoice, error) {
	return s.repo.ListInvoices(ctx)
}

// Update обновляет счёт по ID записи, номер счета при этом не меняется.
func (s *InvoiceService) Update(ctx context.Context, req models.DummyInvoice, id string) (int, error) {
	existing, err := s.repo.ReadInvoice(ctx, id)
	if err != nil {
		return 0, err
	}

	invoiceDate, err := time.Parse("2006-01-02", req.InvoiceDate)
	if err != nil {
		return 0, fmt.Errorf("invalid invoice date: %w", err)
	}
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return 0, fmt.Errorf("invalid due date: %w", err)
	}

	status := req.Status
	if status == "" {
		status = existing.Status
	}
	currency := req.Currency
	if currency == "" {
		currency = existing.Currency
	}
	company := existing.Company
	if req.Company != nil {
		company = *req.Company
	}

	inv := models.Invoice{
		ClientID:       req.Client,
		SubscriptionID: req.Subscription,
		DurationMonths: req.DurationMonths,
		PricePerMonth:  req.PricePerMonth,
		Currency:       currency,
		InvoiceDate:    invoiceDate,
		DueDate:        dueDate,
		Status:         status,
		Company:        company,
		Notes:          req.Notes,
	}
	return s.repo.UpdateInvoice(ctx, inv, id)
}

// Remove удаляет счёт по ID записи.
func (s *InvoiceService) Remove(ctx context.Context, id string) (int, error) {
	return s.repo.RemoveInvoice(ctx, id)
}

// RemoveByNumber удаляет счёт по номеру вида INV-....
func (s *InvoiceService) RemoveByNumber(ctx context.Context, invoiceID string) (int, error) {
	return s.repo.RemoveInvoiceByNumber(ctx, invoiceID)
}
