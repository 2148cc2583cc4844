// Package templatesupdate реализует HTTP-обработчик для обновления шаблонов напоминаний.
package templatesupdate

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

// Request содержит содержимое шаблонов для каждого порога напоминаний.
type Request struct {
	Day3  string `json:"day3" validate:"required"`
	Day7  string `json:"day7" validate:"required"`
	Day14 string `json:"day14" validate:"required"`
}

// Handler обрабатывает запросы на обновление шаблонов напоминаний.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики шаблонов напоминаний.
type Service interface {
	UpdateTemplates(ctx context.Context, day3, day7, day14 string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Обновить шаблоны напоминаний
// @Description Обновляет шаблоны писем-напоминаний для порогов 3, 7 и 14 дней разом.
// @Tags Email
// @Accept  json
// @Produce  json
// @Param request body Request true "Содержимое шаблонов"
// @Success 200 {object} response.Response "Шаблоны обновлены"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /email/reminder-templates [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.email.templatesupdate"
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

	if err := h.service.UpdateTemplates(r.Context(), req.Day3, req.Day7, req.Day14); err != nil {
		log.Error("failed to update reminder templates", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update reminder templates"))
		return
	}

	log.Info("success to update reminder templates")
	render.JSON(w, r, response.OK())
}
