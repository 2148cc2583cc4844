// Package services содержит планировщик фоновых рассылок: ежедневный скан
// просроченных счетов и восстановление еженедельных рассылок из базы.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
	"github.com/magabrotheeeer/billing-manager/internal/models"
	"github.com/magabrotheeeer/billing-manager/internal/rabbitmq"
)

// Пороги просрочки в днях, на которых отправляются напоминания. Счёт с
// другим числом дней просрочки пропускается до следующего порога.
const (
	ThresholdDay3  = 3
	ThresholdDay7  = 7
	ThresholdDay14 = 14
)

// InvoiceRepository отдаёт счета для скана напоминаний.
type InvoiceRepository interface {
	// ListUnpaidInvoices возвращает счета в статусе Unpaid.
	ListUnpaidInvoices(ctx context.Context) ([]*models.Invoice, error)
}

// BroadcastRepository отдаёт зарегистрированные расписания рассылок.
type BroadcastRepository interface {
	// ListBroadcastSchedules возвращает все расписания.
	ListBroadcastSchedules(ctx context.Context) ([]*models.BroadcastSchedule, error)
}

// SchedulerService сканирует счета и восстанавливает расписания рассылок.
type SchedulerService struct {
	invoices   InvoiceRepository
	broadcasts BroadcastRepository
	channel    rabbitmq.Channel
	log        *slog.Logger

	mu         sync.Mutex
	cron       *cron.Cron
	registered map[string]cron.EntryID
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(invoices InvoiceRepository, broadcasts BroadcastRepository,
	channel rabbitmq.Channel, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		invoices:   invoices,
		broadcasts: broadcasts,
		channel:    channel,
		log:        log,
		cron:       cron.New(),
		registered: make(map[string]cron.EntryID),
	}
}

// ThresholdFor возвращает тип шаблона для точного числа дней просрочки.
// Для любых других значений возвращает пустую строку: напоминание не
// отправляется.
func ThresholdFor(daysOverdue int) string {
	switch daysOverdue {
	case ThresholdDay3:
		return models.TemplateDay3
	case ThresholdDay7:
		return models.TemplateDay7
	case ThresholdDay14:
		return models.TemplateDay14
	default:
		return ""
	}
}

// DaysOverdue возвращает полное число дней, прошедших после срока оплаты.
// Для непросроченных счетов результат отрицательный или ноль.
func DaysOverdue(dueDate, now time.Time) int {
	return int(now.Sub(dueDate).Hours() / 24)
}

// RunReminderScan однократно сканирует неоплаченные счета и ставит задачи
// на напоминания для счетов, попавших точно на порог просрочки.
// Возвращает число поставленных задач.
func (s *SchedulerService) RunReminderScan(ctx context.Context) (int, error) {
	s.log.Info("starting reminder scan")
	invoices, err := s.invoices.ListUnpaidInvoices(ctx)
	if err != nil {
		s.log.Error("failed to list unpaid invoices", sl.Err(err))
		return 0, err
	}

	now := time.Now()
	published := 0
	for _, inv := range invoices {
		templateType := ThresholdFor(DaysOverdue(inv.DueDate, now))
		if templateType == "" {
			continue
		}
		task := models.ReminderMailTask{
			InvoiceID:    inv.ID,
			TemplateType: templateType,
		}
		if err := rabbitmq.PublishMessage(s.channel, rabbitmq.MailExchange,
			rabbitmq.RoutingKeyReminder, task); err != nil {
			s.log.Error("failed to publish reminder task",
				slog.String("invoice_id", inv.InvoiceID), sl.Err(err))
			continue
		}
		published++
	}
	s.log.Info("reminder scan finished",
		slog.Int("unpaid", len(invoices)),
		slog.Int("published", published))
	return published, nil
}

// CronSpec собирает cron-выражение еженедельного срабатывания расписания.
func CronSpec(schedule *models.BroadcastSchedule) string {
	return fmt.Sprintf("%d %d * * %d", schedule.Minute, schedule.Hour, schedule.Weekday)
}

// SyncBroadcasts загружает расписания из базы и регистрирует в cron те, что
// ещё не зарегистрированы. Расписания не удаляются, поэтому снятие задач
// не требуется.
func (s *SchedulerService) SyncBroadcasts(ctx context.Context) error {
	schedules, err := s.broadcasts.ListBroadcastSchedules(ctx)
	if err != nil {
		s.log.Error("failed to list broadcast schedules", sl.Err(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, schedule := range schedules {
		if _, ok := s.registered[schedule.ID]; ok {
			continue
		}
		schedule := schedule
		entryID, err := s.cron.AddFunc(CronSpec(schedule), func() {
			s.publishBroadcast(schedule)
		})
		if err != nil {
			s.log.Error("failed to register broadcast schedule",
				slog.String("id", schedule.ID), sl.Err(err))
			continue
		}
		s.registered[schedule.ID] = entryID
		s.log.Info("registered broadcast schedule",
			slog.String("id", schedule.ID),
			slog.String("spec", CronSpec(schedule)))
	}
	return nil
}

// publishBroadcast ставит по задаче на каждого зафиксированного получателя.
func (s *SchedulerService) publishBroadcast(schedule *models.BroadcastSchedule) {
	s.log.Info("broadcast schedule fired",
		slog.String("id", schedule.ID),
		slog.Int("recipients", len(schedule.ClientIDs)))
	for _, clientID := range schedule.ClientIDs {
		task := models.BroadcastMailTask{
			ScheduleID: schedule.ID,
			ClientID:   clientID,
		}
		if err := rabbitmq.PublishMessage(s.channel, rabbitmq.MailExchange,
			rabbitmq.RoutingKeyBroadcast, task); err != nil {
			s.log.Error("failed to publish broadcast task",
				slog.String("schedule_id", schedule.ID),
				slog.String("client_id", clientID), sl.Err(err))
		}
	}
}

// Start запускает cron, ежедневный скан напоминаний в полночь и
// периодическую синхронизацию расписаний рассылок. Блокируется до отмены
// контекста.
func (s *SchedulerService) Start(ctx context.Context) error {
	const op = "scheduler.Start"

	if _, err := s.cron.AddFunc("0 0 * * *", func() {
		if _, err := s.RunReminderScan(ctx); err != nil {
			s.log.Error("reminder scan failed", sl.Err(err))
		}
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.SyncBroadcasts(ctx); err != nil {
		s.log.Error("initial broadcast sync failed", sl.Err(err))
	}

	s.cron.Start()
	defer s.cron.Stop()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.SyncBroadcasts(ctx); err != nil {
				s.log.Error("broadcast sync failed", sl.Err(err))
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
