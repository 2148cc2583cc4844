package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// CountOutstandingInvoices возвращает число счетов в статусах Unpaid и
// Overdue.
func (s *Storage) CountOutstandingInvoices(ctx context.Context) (int, error) {
	const op = "storage.CountOutstandingInvoices"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM invoices WHERE status IN ($1, $2)`
	var count int
	if err := s.DB.QueryRowContext(ctx, query,
		models.InvoiceStatusUnpaid, models.InvoiceStatusOverdue).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// SumPaidSince возвращает сумму оплаченных счетов, чей статус менялся после
// указанного момента.
func (s *Storage) SumPaidSince(ctx context.Context, since time.Time) (float64, error) {
	const op = "storage.SumPaidSince"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COALESCE(SUM(duration_months * price_per_month), 0)
			  FROM invoices
			  WHERE status = $1 AND updated_at >= $2`
	var total float64
	if err := s.DB.QueryRowContext(ctx, query,
		models.InvoiceStatusPaid, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// ListActiveSubscriptionStats возвращает агрегаты по активным подпискам с
// клиентами для расчёта MRR.
func (s *Storage) ListActiveSubscriptionStats(ctx context.Context, now time.Time) ([]models.ActiveSubscriptionStat, error) {
	const op = "storage.ListActiveSubscriptionStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.duration, s.price, COUNT(sc.client_id)
			  FROM subscriptions s
			  JOIN subscription_clients sc ON sc.subscription_id = s.id
			  WHERE s.end_date IS NULL OR s.end_date >= $1
			  GROUP BY s.id, s.duration, s.price`
	rows, err := s.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []models.ActiveSubscriptionStat
	for rows.Next() {
		var item models.ActiveSubscriptionStat
		if err := rows.Scan(&item.Duration, &item.Price, &item.ClientCount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SumPaidGrouped возвращает суммы оплаченных счетов, сгруппированные по
// периоду. Формат ключа задаётся шаблоном to_char: YYYY-MM-DD для дней,
// IYYY-IW для ISO-недель, YYYY-MM для месяцев.
func (s *Storage) SumPaidGrouped(ctx context.Context, since time.Time, keyFormat string) (map[string]float64, error) {
	const op = "storage.SumPaidGrouped"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT to_char(updated_at, $1), SUM(duration_months * price_per_month)
			  FROM invoices
			  WHERE status = $2 AND updated_at >= $3
			  GROUP BY 1`
	rows, err := s.DB.QueryContext(ctx, query, keyFormat, models.InvoiceStatusPaid, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make(map[string]float64)
	for rows.Next() {
		var key string
		var total float64
		if err := rows.Scan(&key, &total); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[key] = total
	}
	if err = rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListRecentSubscriptions возвращает последние подписки с именем первого
// назначенного клиента.
func (s *Storage) ListRecentSubscriptions(ctx context.Context, limit int) ([]*models.Subscription, map[string]string, error) {
	const op = "storage.ListRecentSubscriptions"
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.name, s.price, s.duration, s.start_date, s.end_date,
				COALESCE(c.name, '')
			  FROM subscriptions s
			  LEFT JOIN subscription_clients sc ON sc.subscription_id = s.id AND sc.position = 0
			  LEFT JOIN clients c ON c.id = sc.client_id
			  ORDER BY s.created_at DESC
			  LIMIT $1`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	var subs []*models.Subscription
	firstClientNames := make(map[string]string)
	for rows.Next() {
		var item models.Subscription
		var endDate sql.NullTime
		var clientName string
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.Duration,
			&item.StartDate, &endDate, &clientName); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		if endDate.Valid {
			item.EndDate = &endDate.Time
		}
		firstClientNames[item.ID] = clientName
		subs = append(subs, &item)
	}
	if err = rows.Close(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, firstClientNames, nil
}

// ListRecentInvoices возвращает последние счета с именем клиента.
func (s *Storage) ListRecentInvoices(ctx context.Context, limit int) ([]*models.Invoice, map[string]string, error) {
	const op = "storage.ListRecentInvoices"
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT i.id, i.invoice_id, i.price_per_month, i.duration_months,
				i.due_date, i.status, COALESCE(c.name, '')
			  FROM invoices i
			  LEFT JOIN clients c ON c.id = i.client_id
			  ORDER BY i.created_at DESC
			  LIMIT $1`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	var invoices []*models.Invoice
	clientNames := make(map[string]string)
	for rows.Next() {
		var item models.Invoice
		var clientName string
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.PricePerMonth,
			&item.DurationMonths, &item.DueDate, &item.Status, &clientName); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		clientNames[item.ID] = clientName
		invoices = append(invoices, &item)
	}
	if err = rows.Close(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return invoices, clientNames, nil
}
