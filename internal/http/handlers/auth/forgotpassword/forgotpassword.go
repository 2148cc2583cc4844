// Package forgotpassword реализует HTTP-обработчик запроса кода сброса пароля.
package forgotpassword

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/billing-manager/internal/http/response"
	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
)

// Request содержит email, для которого запрошен сброс пароля.
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Handler обрабатывает запросы кода сброса пароля.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики сброса пароля.
type Service interface {
	ForgotPassword(ctx context.Context, email string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запросить код сброса пароля
// @Description Генерирует одноразовый код и отправляет его на email администратора.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Email администратора"
// @Success 200 {object} response.Response "Код отправлен, если пользователь существует"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /auth/forgot-password [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.forgotpassword"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	// Существование пользователя не раскрывается: для неизвестного email
	// ответ тот же, что и для известного.
	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		log.Error("failed to process forgot password", sl.Err(err))
	}

	log.Info("forgot password processed", slog.String("email", req.Email))
	render.JSON(w, r, response.OK())
}
