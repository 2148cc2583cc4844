package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// joinTags собирает список тегов в одну строку для хранения.
func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// splitTags разбирает строку тегов, отбрасывая пустые элементы.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// CreateClient вставляет нового клиента и возвращает его ID.
func (s *Storage) CreateClient(ctx context.Context, client models.Client) (string, error) {
	const op = "storage.CreateClient"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO clients (id, name, phone, email, address, company, notes, tags, image)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		client.ID, client.Name, client.Phone, client.Email, client.Address,
		client.Company, client.Notes, joinTags(client.Tags), client.Image).Scan(&newID)
	if err != nil {
		return "", wrapPgError(op, err)
	}
	return newID, nil
}

// ReadClient возвращает клиента по ID.
func (s *Storage) ReadClient(ctx context.Context, id string) (*models.Client, error) {
	const op = "storage.ReadClient"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, phone, email, address, company, notes, tags, image,
				created_at, updated_at
			  FROM clients WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Client
	var rawTags string
	if err := row.Scan(&result.ID, &result.Name, &result.Phone, &result.Email,
		&result.Address, &result.Company, &result.Notes, &rawTags, &result.Image,
		&result.CreatedAt, &result.UpdatedAt); err != nil {
		return nil, wrapPgError(op, err)
	}
	result.Tags = splitTags(rawTags)
	return &result, nil
}

// ListClients возвращает всех клиентов в порядке создания.
func (s *Storage) ListClients(ctx context.Context) ([]*models.Client, error) {
	const op = "storage.ListClients"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, phone, email, address, company, notes, tags, image,
				created_at, updated_at
			  FROM clients
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.Client
	for rows.Next() {
		var item models.Client
		var rawTags string
		if err := rows.Scan(&item.ID, &item.Name, &item.Phone, &item.Email,
			&item.Address, &item.Company, &item.Notes, &rawTags, &item.Image,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		item.Tags = splitTags(rawTags)
		result = append(result, &item)
	}
	err = rows.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateClient обновляет данные клиента по ID и возвращает количество
// изменённых строк.
func (s *Storage) UpdateClient(ctx context.Context, client models.Client, id string) (int, error) {
	const op = "storage.UpdateClient"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE clients
			  SET name = $1, phone = $2, email = $3, address = $4, company = $5,
			      notes = $6, tags = $7, image = $8, updated_at = now()
			  WHERE id = $9`
	result, err := s.DB.ExecContext(ctx, query,
		client.Name, client.Phone, client.Email, client.Address, client.Company,
		client.Notes, joinTags(client.Tags), client.Image, id)
	if err != nil {
		return 0, wrapPgError(op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveClient удаляет клиента по ID и возвращает количество удалённых строк.
// Ссылки из подписок и счетов не каскадируются: висячие ссылки допускаются.
func (s *Storage) RemoveClient(ctx context.Context, id string) (int, error) {
	const op = "storage.RemoveClient"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM clients WHERE id = $1`
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

// CountExistingClients возвращает число клиентов из списка, реально
// существующих в базе. Используется при валидации создания подписки.
func (s *Storage) CountExistingClients(ctx context.Context, ids []string) (int, error) {
	const op = "storage.CountExistingClients"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `SELECT COUNT(*) FROM clients WHERE id IN (` + strings.Join(placeholders, ", ") + `)`

	var count int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
