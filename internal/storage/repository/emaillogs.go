package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// CreateEmailLog добавляет запись в журнал отправок. Журнал append-only:
// методов обновления или удаления у него нет.
func (s *Storage) CreateEmailLog(ctx context.Context, entry models.EmailLog) (string, error) {
	const op = "storage.CreateEmailLog"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO email_logs (id, recipient, subject, content, attachment,
			      type, status, invoice_id, sent_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		entry.ID, entry.Recipient, entry.Subject, entry.Content, entry.Attachment,
		entry.Type, entry.Status, entry.InvoiceID, entry.SentAt).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListEmailLogs возвращает журнал отправок, сначала свежие попытки.
func (s *Storage) ListEmailLogs(ctx context.Context) ([]*models.EmailLog, error) {
	const op = "storage.ListEmailLogs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, recipient, subject, content, attachment, type, status,
				invoice_id, sent_at
			  FROM email_logs
			  ORDER BY sent_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.EmailLog
	for rows.Next() {
		var item models.EmailLog
		var invoiceID sql.NullString
		if err := rows.Scan(&item.ID, &item.Recipient, &item.Subject, &item.Content,
			&item.Attachment, &item.Type, &item.Status, &invoiceID, &item.SentAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if invoiceID.Valid {
			item.InvoiceID = &invoiceID.String
		}
		result = append(result, &item)
	}
	if err = rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
