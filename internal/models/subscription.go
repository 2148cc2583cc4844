package models

import "time"

// Допустимые значения длительности тарифного плана.
const (
	DurationWeekly  = "weekly"
	DurationMonthly = "monthly"
	DurationYearly  = "yearly"
)

// Subscription представляет тарифный план с упорядоченным набором
// назначенных клиентов. EndDate может быть nil — подписка бессрочная.
// Счета создаются по одному на клиента только в момент создания подписки,
// периодического перевыставления нет.
type Subscription struct {
	ID          string     `json:"id"`          // UUID подписки
	Name        string     `json:"name"`        // Название плана
	Price       float64    `json:"price"`       // Цена плана
	Duration    string     `json:"duration"`    // Длительность: weekly, monthly или yearly
	Description string     `json:"description"` // Описание плана
	StartDate   time.Time  `json:"start_date"`  // Дата начала
	EndDate     *time.Time `json:"end_date"`    // Дата окончания, nil — бессрочно
	ClientIDs   []string   `json:"clients"`     // Упорядоченный список назначенных клиентов
	CreatedBy   string     `json:"created_by"`  // Кто создал запись
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DummySubscription используется для приёма данных подписки из JSON-запроса.
// Даты приходят строками в формате 2006-01-02 и парсятся в сервисе.
type DummySubscription struct {
	Name        string   `json:"name" validate:"required"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Duration    string   `json:"duration" validate:"required,oneof=weekly monthly yearly"`
	Description string   `json:"description"`
	StartDate   string   `json:"start_date" validate:"required"`
	EndDate     string   `json:"end_date"`
	Clients     []string `json:"clients"`
}
