package models

import "time"

// Статусы счета. Фоновые процессы статус не меняют: переходы выполняются
// только явным действием пользователя.
const (
	InvoiceStatusPaid    = "Paid"
	InvoiceStatusUnpaid  = "Unpaid"
	InvoiceStatusOverdue = "Overdue"
)

// CompanyProfile — снимок реквизитов компании, встраиваемый в счёт в момент
// создания. Последующие изменения профиля на счёт не влияют.
type CompanyProfile struct {
	Name    string `json:"name"`
	Logo    string `json:"logo"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Invoice представляет счёт для пары подписка-клиент. Номер счета имеет вид
// INV-<год>-<номер> и монотонно растёт в пределах календарного года.
// PricePerMonth — снимок цены подписки на момент создания счета.
type Invoice struct {
	ID             string         `json:"id"`              // UUID записи
	InvoiceID      string         `json:"invoice_id"`      // Человекочитаемый номер, например INV-2025-001
	ClientID       string         `json:"client"`          // Ссылка на клиента
	SubscriptionID string         `json:"subscription"`    // Ссылка на подписку
	DurationMonths float64        `json:"duration_months"` // Длительность в месяцах, допускаются дробные значения
	PricePerMonth  float64        `json:"price_per_month"` // Цена за месяц на момент создания
	Currency       string         `json:"currency"`        // Валюта, по умолчанию USD
	InvoiceDate    time.Time      `json:"invoice_date"`    // Дата выставления
	DueDate        time.Time      `json:"due_date"`        // Срок оплаты: дата выставления + 30 дней
	Status         string         `json:"status"`          // Paid, Unpaid или Overdue
	Company        CompanyProfile `json:"company"`         // Снимок реквизитов компании
	Notes          string         `json:"notes"`           // Произвольные заметки
	CreatedBy      string         `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Total возвращает сумму счета: длительность в месяцах, умноженная на цену
// за месяц.
func (i *Invoice) Total() float64 {
	return i.DurationMonths * i.PricePerMonth
}

// DummyInvoice используется для приёма данных счета из JSON-запроса при
// ручном создании или полном редактировании.
type DummyInvoice struct {
	Client         string          `json:"client" validate:"required,uuid"`
	Subscription   string          `json:"subscription" validate:"required,uuid"`
	DurationMonths float64         `json:"duration_months" validate:"required,gt=0"`
	PricePerMonth  float64         `json:"price_per_month" validate:"required,gt=0"`
	Currency       string          `json:"currency"`
	InvoiceDate    string          `json:"invoice_date" validate:"required"`
	DueDate        string          `json:"due_date" validate:"required"`
	Status         string          `json:"status" validate:"omitempty,oneof=Paid Unpaid Overdue"`
	Company        *CompanyProfile `json:"company"`
	Notes          string          `json:"notes"`
}
