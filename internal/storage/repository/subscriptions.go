package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// CreateSubscription вставляет подписку вместе с упорядоченным списком
// назначенных клиентов в одной транзакции и возвращает её ID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (string, error) {
	const op = "storage.CreateSubscription"
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

	query := `INSERT INTO subscriptions (id, name, price, duration, description,
			      start_date, end_date, created_by)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`
	var newID string
	err = tx.QueryRowContext(ctx, query,
		sub.ID, sub.Name, sub.Price, sub.Duration, sub.Description,
		sub.StartDate, sub.EndDate, sub.CreatedBy).Scan(&newID)
	if err != nil {
		return "", wrapPgError(op, err)
	}

	if err = insertSubscriptionClients(ctx, tx, newID, sub.ClientIDs); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

func insertSubscriptionClients(ctx context.Context, tx *sql.Tx, subID string, clientIDs []string) error {
	query := `INSERT INTO subscription_clients (subscription_id, client_id, position)
			  VALUES ($1, $2, $3)`
	for i, clientID := range clientIDs {
		if _, err := tx.ExecContext(ctx, query, subID, clientID, i); err != nil {
			return err
		}
	}
	return nil
}

// ReadSubscription возвращает подписку по ID вместе со списком клиентов.
func (s *Storage) ReadSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.ReadSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, duration, description, start_date, end_date,
				created_by, created_at, updated_at
			  FROM subscriptions WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Subscription
	var endDate sql.NullTime
	if err := row.Scan(&result.ID, &result.Name, &result.Price, &result.Duration,
		&result.Description, &result.StartDate, &endDate, &result.CreatedBy,
		&result.CreatedAt, &result.UpdatedAt); err != nil {
		return nil, wrapPgError(op, err)
	}
	if endDate.Valid {
		result.EndDate = &endDate.Time
	}

	clientIDs, err := s.subscriptionClientIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result.ClientIDs = clientIDs
	return &result, nil
}

func (s *Storage) subscriptionClientIDs(ctx context.Context, subID string) ([]string, error) {
	query := `SELECT client_id FROM subscription_clients
			  WHERE subscription_id = $1
			  ORDER BY position`
	rows, err := s.DB.QueryContext(ctx, query, subID)
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

// ListSubscriptions возвращает все подписки, сначала новые.
func (s *Storage) ListSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, duration, description, start_date, end_date,
				created_by, created_at, updated_at
			  FROM subscriptions
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.Subscription
	for rows.Next() {
		var item models.Subscription
		var endDate sql.NullTime
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.Duration,
			&item.Description, &item.StartDate, &endDate, &item.CreatedBy,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if endDate.Valid {
			item.EndDate = &endDate.Time
		}
		result = append(result, &item)
	}
	if err = rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, sub := range result {
		clientIDs, err := s.subscriptionClientIDs(ctx, sub.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sub.ClientIDs = clientIDs
	}
	return result, nil
}

// UpdateSubscription обновляет подписку и список её клиентов, возвращает
// количество изменённых строк.
func (s *Storage) UpdateSubscription(ctx context.Context, sub models.Subscription, id string) (int, error) {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `UPDATE subscriptions
			  SET name = $1, price = $2, duration = $3, description = $4,
			      start_date = $5, end_date = $6, updated_at = now()
			  WHERE id = $7`
	result, err := tx.ExecContext(ctx, query,
		sub.Name, sub.Price, sub.Duration, sub.Description,
		sub.StartDate, sub.EndDate, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return 0, nil
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM subscription_clients WHERE subscription_id = $1`, id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err = insertSubscriptionClients(ctx, tx, id, sub.ClientIDs); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveSubscription удаляет подписку по ID и возвращает количество
// удалённых строк.
func (s *Storage) RemoveSubscription(ctx context.Context, id string) (int, error) {
	const op = "storage.RemoveSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM subscriptions WHERE id = $1`
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

// ListSubscribedClientIDs возвращает уникальные ID клиентов, назначенных
// хотя бы одной подписке. Используется для режима рассылки "all".
func (s *Storage) ListSubscribedClientIDs(ctx context.Context) ([]string, error) {
	const op = "storage.ListSubscribedClientIDs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT DISTINCT sc.client_id
			  FROM subscription_clients sc
			  JOIN clients c ON c.id = sc.client_id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// CountActiveSubscriptions возвращает число подписок, не истёкших к моменту
// now и имеющих хотя бы одного клиента.
func (s *Storage) CountActiveSubscriptions(ctx context.Context, now time.Time) (int, error) {
	const op = "storage.CountActiveSubscriptions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM subscriptions s
			  WHERE (s.end_date IS NULL OR s.end_date >= $1)
			    AND EXISTS (SELECT 1 FROM subscription_clients sc WHERE sc.subscription_id = s.id)`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
