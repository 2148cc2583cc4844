package models

// Задачи на отправку писем, публикуемые в RabbitMQ. Полезная нагрузка
// несёт только идентификаторы: воркер-отправитель сам загружает актуальные
// данные из хранилища перед отправкой.

// InvoiceMailTask — задача на отправку письма со свежевыставленным счетом.
type InvoiceMailTask struct {
	InvoiceID string `json:"invoice_id"`
}

// ReminderMailTask — задача на отправку напоминания о просроченном счете.
// TemplateType определяет шаблон, выбранный планировщиком по числу дней
// просрочки.
type ReminderMailTask struct {
	InvoiceID    string `json:"invoice_id"`
	TemplateType string `json:"template_type"`
}

// BroadcastMailTask — задача на отправку одного письма еженедельной
// рассылки одному получателю.
type BroadcastMailTask struct {
	ScheduleID string `json:"schedule_id"`
	ClientID   string `json:"client_id"`
}

// SystemMailTask — служебное письмо без записи в журнал отправок,
// например код восстановления пароля.
type SystemMailTask struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Content   string `json:"content"`
}
