package models

import "time"

// User — учётная запись администратора панели. Пароль хранится bcrypt-хэшем.
// ResetCode и ResetCodeExpiry заполняются на время восстановления пароля.
type User struct {
	ID              string     // UUID пользователя
	Email           string     // Email, уникален
	PasswordHash    string     // bcrypt-хэш пароля
	ResetCode       *string    // Одноразовый код восстановления
	ResetCodeExpiry *time.Time // Срок действия кода
	CreatedAt       time.Time
}
