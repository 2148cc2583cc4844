package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// UpsertUser создаёт пользователя-администратора или обновляет его хэш
// пароля. Вызывается при старте процесса для засева учётной записи из
// конфигурации.
func (s *Storage) UpsertUser(ctx context.Context, user models.User) error {
	const op = "storage.UpsertUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (id, email, password_hash)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (email) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, email, password_hash, reset_code, reset_code_expiry, created_at
			  FROM users
			  WHERE email = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, email)

	var resetCode sql.NullString
	var resetCodeExpiry sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash,
		&resetCode, &resetCodeExpiry, &u.CreatedAt); err != nil {
		return nil, wrapPgError(op, err)
	}

	if resetCode.Valid {
		u.ResetCode = &resetCode.String
	}
	if resetCodeExpiry.Valid {
		u.ResetCodeExpiry = &resetCodeExpiry.Time
	}
	return u, nil
}

// SetResetCode сохраняет одноразовый код восстановления пароля и срок его
// действия.
func (s *Storage) SetResetCode(ctx context.Context, email, code string, expiry time.Time) (int, error) {
	const op = "storage.SetResetCode"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET reset_code = $1, reset_code_expiry = $2 WHERE email = $3`
	result, err := s.DB.ExecContext(ctx, query, code, expiry, email)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdatePassword устанавливает новый хэш пароля и сбрасывает код
// восстановления.
func (s *Storage) UpdatePassword(ctx context.Context, email, passwordHash string) (int, error) {
	const op = "storage.UpdatePassword"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET password_hash = $1, reset_code = NULL, reset_code_expiry = NULL
			  WHERE email = $2`
	result, err := s.DB.ExecContext(ctx, query, passwordHash, email)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
