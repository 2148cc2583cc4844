package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// UpsertReminderTemplate записывает текст шаблона для порога, создавая
// запись при отсутствии. Используется и при засеве значений по умолчанию,
// и при редактировании пользователем.
func (s *Storage) UpsertReminderTemplate(ctx context.Context, tmpl models.ReminderTemplate) error {
	const op = "storage.UpsertReminderTemplate"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO reminder_templates (type, content)
			  VALUES ($1, $2)
			  ON CONFLICT (type) DO UPDATE SET content = EXCLUDED.content, updated_at = now()`
	if _, err := s.DB.ExecContext(ctx, query, tmpl.Type, tmpl.Content); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SeedReminderTemplates создаёт недостающие шаблоны со значениями по
// умолчанию, не затирая отредактированные пользователем тексты.
func (s *Storage) SeedReminderTemplates(ctx context.Context, templates []models.ReminderTemplate) error {
	const op = "storage.SeedReminderTemplates"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO reminder_templates (type, content)
			  VALUES ($1, $2)
			  ON CONFLICT (type) DO NOTHING`
	for _, tmpl := range templates {
		if _, err := s.DB.ExecContext(ctx, query, tmpl.Type, tmpl.Content); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// GetReminderTemplate возвращает шаблон по типу порога.
func (s *Storage) GetReminderTemplate(ctx context.Context, templateType string) (*models.ReminderTemplate, error) {
	const op = "storage.GetReminderTemplate"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT type, content, updated_at FROM reminder_templates WHERE type = $1`
	var result models.ReminderTemplate
	if err := s.DB.QueryRowContext(ctx, query, templateType).Scan(
		&result.Type, &result.Content, &result.UpdatedAt); err != nil {
		return nil, wrapPgError(op, err)
	}
	return &result, nil
}

// ListReminderTemplates возвращает все шаблоны напоминаний.
func (s *Storage) ListReminderTemplates(ctx context.Context) ([]*models.ReminderTemplate, error) {
	const op = "storage.ListReminderTemplates"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT type, content, updated_at FROM reminder_templates ORDER BY type`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.ReminderTemplate
	for rows.Next() {
		var item models.ReminderTemplate
		if err := rows.Scan(&item.Type, &item.Content, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
