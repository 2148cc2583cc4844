// Package services содержит бизнес-логику почтового раздела: шаблоны
// напоминаний, журнал отправок и регистрацию еженедельных рассылок.
package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// TemplateRepository определяет методы для работы с шаблонами напоминаний.
type TemplateRepository interface {
	// UpsertReminderTemplate создаёт или обновляет шаблон.
	UpsertReminderTemplate(ctx context.Context, tmpl models.ReminderTemplate) error
	// GetReminderTemplate возвращает шаблон по типу.
	GetReminderTemplate(ctx context.Context, templateType string) (*models.ReminderTemplate, error)
	// ListReminderTemplates возвращает все шаблоны.
	ListReminderTemplates(ctx context.Context) ([]*models.ReminderTemplate, error)
}

// EmailLogRepository определяет методы для журнала отправок.
type EmailLogRepository interface {
	// ListEmailLogs возвращает журнал отправок, сначала свежие попытки.
	ListEmailLogs(ctx context.Context) ([]*models.EmailLog, error)
}

// BroadcastRepository определяет методы для расписаний рассылок.
type BroadcastRepository interface {
	// CreateBroadcastSchedule сохраняет расписание вместе с получателями.
	CreateBroadcastSchedule(ctx context.Context, schedule models.BroadcastSchedule) (string, error)
}

// ClientSetRepository отдаёт наборы клиентов для фиксации получателей.
type ClientSetRepository interface {
	// ListSubscribedClientIDs возвращает клиентов хотя бы с одной подпиской.
	ListSubscribedClientIDs(ctx context.Context) ([]string, error)
	// CountExistingClients возвращает число существующих клиентов из списка.
	CountExistingClients(ctx context.Context, ids []string) (int, error)
}

// EmailService реализует бизнес-логику почтового раздела.
type EmailService struct {
	templates  TemplateRepository
	logs       EmailLogRepository
	broadcasts BroadcastRepository
	clients    ClientSetRepository
	log        *slog.Logger
}

// NewEmailService создает новый экземпляр EmailService.
func NewEmailService(templates TemplateRepository, logs EmailLogRepository,
	broadcasts BroadcastRepository, clients ClientSetRepository, log *slog.Logger) *EmailService {
	return &EmailService{
		templates:  templates,
		logs:       logs,
		broadcasts: broadcasts,
		clients:    clients,
		log:        log,
	}
}

// ListTemplates возвращает все шаблоны напоминаний.
func (s *EmailService) ListTemplates(ctx context.Context) ([]*models.ReminderTemplate, error) {
	return s.templates.ListReminderTemplates(ctx)
}

// UpdateTemplates сохраняет тексты всех трёх шаблонов напоминаний.
// Все три текста обязательны.
func (s *EmailService) UpdateTemplates(ctx context.Context, day3, day7, day14 string) error {
	updates := map[string]string{
		models.TemplateDay3:  day3,
		models.TemplateDay7:  day7,
		models.TemplateDay14: day14,
	}
	for _, content := range updates {
		if strings.TrimSpace(content) == "" {
			return fmt.Errorf("all template contents are required")
		}
	}
	for _, templateType := range []string{models.TemplateDay3, models.TemplateDay7, models.TemplateDay14} {
		err := s.templates.UpsertReminderTemplate(ctx, models.ReminderTemplate{
			Type:    templateType,
			Content: updates[templateType],
		})
		if err != nil {
			return err
		}
	}
	s.log.Info("updated reminder templates")
	return nil
}

// ListLogs возвращает журнал отправок.
func (s *EmailService) ListLogs(ctx context.Context) ([]*models.EmailLog, error) {
	return s.logs.ListEmailLogs(ctx)
}

// ParseScheduleDay переводит английское название дня недели в число,
// где 0 — воскресенье.
func ParseScheduleDay(day string) (int, error) {
	days := map[string]int{
		"sunday":    0,
		"monday":    1,
		"tuesday":   2,
		"wednesday": 3,
		"thursday":  4,
		"friday":    5,
		"saturday":  6,
	}
	weekday, ok := days[strings.ToLower(strings.TrimSpace(day))]
	if !ok {
		return 0, fmt.Errorf("unknown schedule day: %s", day)
	}
	return weekday, nil
}

// ParseScheduleTime разбирает строку HH:MM в час и минуту.
func ParseScheduleTime(raw string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid schedule time: %s", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid schedule hour: %s", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid schedule minute: %s", raw)
	}
	return hour, minute, nil
}

// RegisterWeeklyEmail валидирует запрос, фиксирует список получателей и
// сохраняет расписание еженедельной рассылки. Список получателей при
// последующих срабатываниях не пересчитывается.
func (s *EmailService) RegisterWeeklyEmail(ctx context.Context, req models.DummyBroadcast) (*models.BroadcastSchedule, error) {
	weekday, err := ParseScheduleDay(req.ScheduleDay)
	if err != nil {
		return nil, err
	}
	hour, minute, err := ParseScheduleTime(req.ScheduleTime)
	if err != nil {
		return nil, err
	}

	var clientIDs []string
	switch req.Recipients {
	case models.RecipientsAll:
		clientIDs, err = s.clients.ListSubscribedClientIDs(ctx)
		if err != nil {
			return nil, err
		}
	case models.RecipientsSelected:
		if len(req.SelectedClients) == 0 {
			return nil, fmt.Errorf("selected recipients list is empty")
		}
		count, err := s.clients.CountExistingClients(ctx, req.SelectedClients)
		if err != nil {
			return nil, err
		}
		if count != len(req.SelectedClients) {
			return nil, fmt.Errorf("unknown client in recipients list")
		}
		clientIDs = req.SelectedClients
	default:
		return nil, fmt.Errorf("unknown recipients mode: %s", req.Recipients)
	}

	schedule := models.BroadcastSchedule{
		ID:         uuid.NewString(),
		Subject:    req.Subject,
		Content:    req.Content,
		Recipients: req.Recipients,
		ClientIDs:  clientIDs,
		Weekday:    weekday,
		Hour:       hour,
		Minute:     minute,
		CreatedAt:  time.Now(),
	}

	if req.Attachment != nil && req.Attachment.Content != "" {
		data, err := base64.StdEncoding.DecodeString(req.Attachment.Content)
		if err != nil {
			return nil, fmt.Errorf("invalid attachment encoding: %w", err)
		}
		schedule.AttachmentName = req.Attachment.Name
		schedule.AttachmentData = data
		schedule.AttachmentMime = req.Attachment.Type
	}

	id, err := s.broadcasts.CreateBroadcastSchedule(ctx, schedule)
	if err != nil {
		return nil, err
	}
	schedule.ID = id
	s.log.Info("registered weekly email",
		slog.String("id", id),
		slog.Int("recipients", len(clientIDs)),
		slog.Int("weekday", weekday))
	return &schedule, nil
}
