package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// NextInvoiceSequence атомарно выдаёт следующий порядковый номер счета в
// пределах календарного года. Счётчик инкрементируется на уровне базы,
// поэтому одновременное создание счетов не приводит к дублям номеров.
func (s *Storage) NextInvoiceSequence(ctx context.Context, year int) (int, error) {
	const op = "storage.NextInvoiceSequence"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO invoice_sequences (year, value)
			  VALUES ($1, 1)
			  ON CONFLICT (year) DO UPDATE SET value = invoice_sequences.value + 1
			  RETURNING value`
	var value int
	if err := s.DB.QueryRowContext(ctx, query, year).Scan(&value); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

const invoiceColumns = `id, invoice_id, client_id, subscription_id, duration_months,
	price_per_month, currency, invoice_date, due_date, status,
	company_name, company_logo, company_email, company_phone, company_address,
	notes, created_by, created_at, updated_at`

func scanInvoice(row interface{ Scan(...any) error }) (*models.Invoice, error) {
	var inv models.Invoice
	if err := row.Scan(&inv.ID, &inv.InvoiceID, &inv.ClientID, &inv.SubscriptionID,
		&inv.DurationMonths, &inv.PricePerMonth, &inv.Currency, &inv.InvoiceDate,
		&inv.DueDate, &inv.Status,
		&inv.Company.Name, &inv.Company.Logo, &inv.Company.Email,
		&inv.Company.Phone, &inv.Company.Address,
		&inv.Notes, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}

// CreateInvoice вставляет новый счёт и возвращает его ID.
func (s *Storage) CreateInvoice(ctx context.Context, inv models.Invoice) (string, error) {
	const op = "storage.CreateInvoice"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO invoices (id, invoice_id, client_id, subscription_id,
			      duration_months, price_per_month, currency, invoice_date, due_date,
			      status, company_name, company_logo, company_email, company_phone,
			      company_address, notes, created_by)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		inv.ID, inv.InvoiceID, inv.ClientID, inv.SubscriptionID,
		inv.DurationMonths, inv.PricePerMonth, inv.Currency, inv.InvoiceDate,
		inv.DueDate, inv.Status, inv.Company.Name, inv.Company.Logo,
		inv.Company.Email, inv.Company.Phone, inv.Company.Address,
		inv.Notes, inv.CreatedBy).Scan(&newID)
	if err != nil {
		return "", wrapPgError(op, err)
	}
	return newID, nil
}

// ReadInvoice возвращает счёт по ID записи.
func (s *Storage) ReadInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	const op = "storage.ReadInvoice"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	inv, err := scanInvoice(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapPgError(op, err)
	}
	return inv, nil
}

// ListInvoices возвращает все счета, сначала новые.
func (s *Storage) ListInvoices(ctx context.Context) ([]*models.Invoice, error) {
	const op = "storage.ListInvoices"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, inv)
	}
	if err = rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListUnpaidInvoices возвращает счета в статусе Unpaid для сканирования
// планировщиком напоминаний.
func (s *Storage) ListUnpaidInvoices(ctx context.Context) ([]*models.Invoice, error) {
	const op = "storage.ListUnpaidInvoices"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE status = $1`
	rows, err := s.DB.QueryContext(ctx, query, models.InvoiceStatusUnpaid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, inv)
	}
	if err = rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateInvoice полностью обновляет счёт по ID записи и возвращает
// количество изменённых строк.
func (s *Storage) UpdateInvoice(ctx context.Context, inv models.Invoice, id string) (int, error) {
	const op = "storage.UpdateInvoice"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE invoices
			  SET client_id = $1, subscription_id = $2, duration_months = $3,
			      price_per_month = $4, currency = $5, invoice_date = $6, due_date = $7,
			      status = $8, company_name = $9, company_logo = $10, company_email = $11,
			      company_phone = $12, company_address = $13, notes = $14, updated_at = now()
			  WHERE id = $15`
	result, err := s.DB.ExecContext(ctx, query,
		inv.ClientID, inv.SubscriptionID, inv.DurationMonths, inv.PricePerMonth,
		inv.Currency, inv.InvoiceDate, inv.DueDate, inv.Status,
		inv.Company.Name, inv.Company.Logo, inv.Company.Email,
		inv.Company.Phone, inv.Company.Address, inv.Notes, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveInvoice удаляет счёт по ID записи и возвращает количество удалённых
// строк.
func (s *Storage) RemoveInvoice(ctx context.Context, id string) (int, error) {
	const op = "storage.RemoveInvoice"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM invoices WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveInvoiceByNumber удаляет счёт по человекочитаемому номеру
// (INV-...). Используется обработчиком дашборда.
func (s *Storage) RemoveInvoiceByNumber(ctx context.Context, invoiceID string) (int, error) {
	const op = "storage.RemoveInvoiceByNumber"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM invoices WHERE invoice_id = $1`
	result, err := s.DB.ExecContext(ctx, query, invoiceID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
