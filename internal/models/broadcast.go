package models

import "time"

// Режимы выбора получателей рассылки.
const (
	RecipientsAll      = "all"
	RecipientsSelected = "selected"
)

// BroadcastSchedule — еженедельная рассылка, зарегистрированная
// пользователем. Список получателей фиксируется в момент регистрации и при
// последующих срабатываниях не пересчитывается: клиенты, добавленные позже,
// в рассылку не попадают. Расписания хранятся в базе и восстанавливаются
// планировщиком после перезапуска процесса.
type BroadcastSchedule struct {
	ID             string    // UUID расписания
	Subject        string    // Тема письма
	Content        string    // HTML-содержимое
	AttachmentName string    // Имя вложения, пустое если вложения нет
	AttachmentData []byte    // Содержимое вложения
	AttachmentMime string    // MIME-тип вложения
	Recipients     string    // Режим выбора: all или selected
	ClientIDs      []string  // Зафиксированный список получателей
	Weekday        int       // День недели: 0 — воскресенье ... 6 — суббота
	Hour           int       // Час срабатывания, 0-23
	Minute         int       // Минута срабатывания, 0-59
	CreatedAt      time.Time
}

// DummyBroadcast используется для приёма запроса на регистрацию рассылки.
// Вложение передаётся содержимым в base64. Время — строка HH:MM, день
// недели — английское название.
type DummyBroadcast struct {
	Subject         string   `json:"subject" validate:"required"`
	Content         string   `json:"content" validate:"required"`
	Recipients      string   `json:"recipients" validate:"required,oneof=all selected"`
	SelectedClients []string `json:"selected_clients"`
	ScheduleDay     string   `json:"schedule_day" validate:"required"`
	ScheduleTime    string   `json:"schedule_time" validate:"required"`
	Attachment      *struct {
		Name    string `json:"name"`
		Content string `json:"content"`
		Type    string `json:"type"`
	} `json:"attachment"`
}
