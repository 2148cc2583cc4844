package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// CreateBroadcastSchedule сохраняет расписание рассылки вместе с
// зафиксированным списком получателей в одной транзакции.
func (s *Storage) CreateBroadcastSchedule(ctx context.Context, schedule models.BroadcastSchedule) (string, error) {
	const op = "storage.CreateBroadcastSchedule"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO broadcast_schedules (id, subject, content, attachment_name,
			      attachment_data, attachment_mime, recipients, weekday, hour, minute)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`
	var newID string
	err = tx.QueryRowContext(ctx, query,
		schedule.ID, schedule.Subject, schedule.Content, schedule.AttachmentName,
		schedule.AttachmentData, schedule.AttachmentMime, schedule.Recipients,
		schedule.Weekday, schedule.Hour, schedule.Minute).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	recipientQuery := `INSERT INTO broadcast_recipients (schedule_id, client_id)
			  VALUES ($1, $2)`
	for _, clientID := range schedule.ClientIDs {
		if _, err = tx.ExecContext(ctx, recipientQuery, newID, clientID); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadBroadcastSchedule возвращает расписание по ID вместе со списком
// получателей.
func (s *Storage) ReadBroadcastSchedule(ctx context.Context, id string) (*models.BroadcastSchedule, error) {
	const op = "storage.ReadBroadcastSchedule"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, subject, content, attachment_name, attachment_data,
				attachment_mime, recipients, weekday, hour, minute, created_at
			  FROM broadcast_schedules WHERE id = $1`
	var result models.BroadcastSchedule
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&result.ID, &result.Subject, &result.Content, &result.AttachmentName,
		&result.AttachmentData, &result.AttachmentMime, &result.Recipients,
		&result.Weekday, &result.Hour, &result.Minute, &result.CreatedAt); err != nil {
		return nil, wrapPgError(op, err)
	}

	clientIDs, err := s.broadcastRecipientIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result.ClientIDs = clientIDs
	return &result, nil
}

func (s *Storage) broadcastRecipientIDs(ctx context.Context, scheduleID string) ([]string, error) {
	query := `SELECT client_id FROM broadcast_recipients WHERE schedule_id = $1`
	rows, err := s.DB.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Close()
}

// ListBroadcastSchedules возвращает все зарегистрированные расписания.
// Планировщик вызывает его при старте и при периодической синхронизации.
func (s *Storage) ListBroadcastSchedules(ctx context.Context) ([]*models.BroadcastSchedule, error) {
	const op = "storage.ListBroadcastSchedules"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, subject, content, attachment_name, attachment_data,
				attachment_mime, recipients, weekday, hour, minute, created_at
			  FROM broadcast_schedules
			  ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.BroadcastSchedule
	for rows.Next() {
		var item models.BroadcastSchedule
		if err := rows.Scan(&item.ID, &item.Subject, &item.Content, &item.AttachmentName,
			&item.AttachmentData, &item.AttachmentMime, &item.Recipients,
			&item.Weekday, &item.Hour, &item.Minute, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, schedule := range result {
		clientIDs, err := s.broadcastRecipientIDs(ctx, schedule.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		schedule.ClientIDs = clientIDs
	}
	return result, nil
}
