// Package models содержит доменные структуры приложения: клиенты, подписки,
// счета, журнал писем, шаблоны напоминаний и расписания рассылок, а также
// вспомогательные DTO для приёма данных из JSON-запросов.
package models

import "time"

// Client представляет карточку клиента. Email уникален; остальные поля
// профиля опциональны. Клиент может быть удалён независимо от подписок и
// счетов, ссылающихся на него.
type Client struct {
	ID        string    `json:"id"`         // UUID клиента
	Name      string    `json:"name"`       // Имя клиента
	Phone     string    `json:"phone"`      // Телефон
	Email     string    `json:"email"`      // Email, уникален в рамках всей базы
	Address   string    `json:"address"`    // Адрес
	Company   string    `json:"company"`    // Компания клиента
	Notes     string    `json:"notes"`      // Произвольные заметки
	Tags      []string  `json:"tags"`       // Теги для группировки
	Image     string    `json:"image"`      // Относительный путь к загруженному изображению
	CreatedAt time.Time `json:"created_at"` // Дата создания записи
	UpdatedAt time.Time `json:"updated_at"` // Дата последнего обновления
}

// DummyClient используется для приёма данных клиента из запроса.
// Теги приходят одной строкой через запятую, как отправляет форма.
type DummyClient struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address"`
	Company string `json:"company"`
	Notes   string `json:"notes"`
	Tags    string `json:"tags"`
}
