// Package templatesget реализует HTTP-обработчик для получения шаблонов напоминаний.
package templatesget

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-manager/internal/http/response"
	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// Handler обрабатывает запросы на чтение шаблонов напоминаний.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики шаблонов напоминаний.
type Service interface {
	ListTemplates(ctx context.Context) ([]*models.ReminderTemplate, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Шаблоны напоминаний
// @Description Возвращает шаблоны писем-напоминаний для порогов 3, 7 и 14 дней.
// @Tags Email
// @Produce  json
// @Success 200 {object} map[string]any "Список шаблонов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /email/reminder-templates [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.email.templatesget"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.ListTemplates(r.Context())
	if err != nil {
		log.Error("failed to list reminder templates", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list reminder templates"))
		return
	}

	log.Info("success to list reminder templates", slog.Int("count", len(res)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"templates": res,
	}))
}
