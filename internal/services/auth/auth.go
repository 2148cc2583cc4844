// Package services реализует аутентификацию администратора: вход по паролю,
// восстановление пароля по одноразовому коду и проверку JWT токена.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/billing-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/billing-manager/internal/lib/otp"
	"github.com/magabrotheeeer/billing-manager/internal/lib/password"
	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
	"github.com/magabrotheeeer/billing-manager/internal/models"
	"github.com/magabrotheeeer/billing-manager/internal/rabbitmq"
)

// ResetCodeTTL срок действия одноразового кода восстановления.
const ResetCodeTTL = 15 * time.Minute

// UserRepository определяет методы для работы с учётными записями.
type UserRepository interface {
	// GetUserByEmail возвращает пользователя по email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// SetResetCode сохраняет код восстановления и срок его действия,
	// возвращая число затронутых строк.
	SetResetCode(ctx context.Context, email, code string, expiry time.Time) (int, error)
	// UpdatePassword меняет хэш пароля и сбрасывает код восстановления,
	// возвращая число затронутых строк.
	UpdatePassword(ctx context.Context, email, passwordHash string) (int, error)
}

// AuthService реализует бизнес-логику аутентификации.
type AuthService struct {
	repo    UserRepository
	maker   jwt.Maker
	channel rabbitmq.Channel
	log     *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(repo UserRepository, maker jwt.Maker, channel rabbitmq.Channel,
	log *slog.Logger) *AuthService {
	return &AuthService{
		repo:    repo,
		maker:   maker,
		channel: channel,
		log:     log,
	}
}

// Login проверяет email и пароль и возвращает JWT токен.
func (s *AuthService) Login(ctx context.Context, email, pass string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}
	if err := password.CompareHash(user.PasswordHash, pass); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token, err := s.maker.GenerateToken(user.Email)
	if err != nil {
		return "", err
	}
	s.log.Info("admin logged in", slog.String("email", email))
	return token, nil
}

// ForgotPassword генерирует одноразовый код, сохраняет его со сроком
// действия и ставит задачу на отправку служебного письма. Письмо с кодом
// не попадает в журнал отправок.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("user not found")
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(ResetCodeTTL)
	rows, err := s.repo.SetResetCode(ctx, user.Email, code, expiry)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	task := models.SystemMailTask{
		Recipient: user.Email,
		Subject:   "Password Reset Code",
		Content: fmt.Sprintf("<p>Your password reset code is: <strong>%s</strong></p>"+
			"<p>The code expires in 15 minutes.</p>", code),
	}
	if err := rabbitmq.PublishMessage(s.channel, rabbitmq.MailExchange,
		rabbitmq.RoutingKeySystem, task); err != nil {
		s.log.Error("failed to publish reset code mail task", sl.Err(err))
		return err
	}
	s.log.Info("password reset code issued", slog.String("email", email))
	return nil
}

// ResetPassword проверяет код восстановления и устанавливает новый пароль.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("user not found")
	}
	if user.ResetCode == nil || user.ResetCodeExpiry == nil {
		return fmt.Errorf("no reset code requested")
	}
	if *user.ResetCode != code {
		return fmt.Errorf("invalid reset code")
	}
	if time.Now().After(*user.ResetCodeExpiry) {
		return fmt.Errorf("reset code expired")
	}

	hash, err := password.GetHash(newPassword)
	if err != nil {
		return err
	}
	rows, err := s.repo.UpdatePassword(ctx, user.Email, hash)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}
	s.log.Info("admin password reset", slog.String("email", email))
	return nil
}

// Verify проверяет JWT токен и возвращает email администратора.
func (s *AuthService) Verify(tokenStr string) (string, error) {
	claims, err := s.maker.ParseToken(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Email, nil
}
