package models

import "time"

// Типы писем, попадающих в журнал отправок.
const (
	EmailTypeReminder = "reminder"
	EmailTypeWeekly   = "weekly"
	EmailTypeInvoice  = "invoice"
)

// Статусы попытки отправки.
const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog — запись журнала отправок. Создаётся ровно одна на каждую попытку
// отправки письма независимо от исхода и никогда не изменяется после
// создания. InvoiceID заполняется для писем, привязанных к счету.
type EmailLog struct {
	ID         string    `json:"id"`         // UUID записи
	Recipient  string    `json:"recipient"`  // Email получателя
	Subject    string    `json:"subject"`    // Тема письма
	Content    string    `json:"content"`    // HTML или текстовое содержимое
	Attachment string    `json:"attachment"` // Имя вложения, пустое если вложения не было
	Type       string    `json:"type"`       // reminder, weekly или invoice
	Status     string    `json:"status"`     // sent или failed
	InvoiceID  *string   `json:"invoice_id"` // Ссылка на счёт, nil для рассылок
	SentAt     time.Time `json:"sent_at"`    // Время попытки отправки
}

// Типы шаблонов напоминаний: по одному на каждый фиксированный порог
// просрочки.
const (
	TemplateDay3  = "day3"
	TemplateDay7  = "day7"
	TemplateDay14 = "day14"
)

// ReminderTemplate хранит текущий текст напоминания для одного порога.
// Записи создаются при старте процесса (upsert значений по умолчанию),
// редактируются пользователем и никогда не удаляются.
type ReminderTemplate struct {
	Type      string    `json:"type"`       // day3, day7 или day14
	Content   string    `json:"content"`    // Текст, подставляемый в HTML-обёртку письма
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultReminderTemplates возвращает содержимое шаблонов по умолчанию,
// засеваемое при старте, если шаблон отсутствует.
func DefaultReminderTemplates() []ReminderTemplate {
	return []ReminderTemplate{
		{Type: TemplateDay3, Content: "Hi, your payment is due. Please pay within 3 days."},
		{Type: TemplateDay7, Content: "Reminder: Your payment is still pending after 7 days."},
		{Type: TemplateDay14, Content: "Final notice: Payment overdue for 14 days."},
	}
}
