// Package remindertest реализует HTTP-обработчик ручного запуска проверки
// просроченных счетов с отправкой напоминаний.
package remindertest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-manager/internal/http/response"
	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
)

// Handler обрабатывает запросы на ручной запуск проверки напоминаний.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс планировщика напоминаний.
type Service interface {
	RunReminderScan(ctx context.Context) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Запустить проверку напоминаний
// @Description Немедленно запускает проверку просроченных счетов и ставит напоминания в очередь отправки.
// @Tags Email
// @Produce  json
// @Success 200 {object} map[string]any "Число поставленных в очередь напоминаний"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /email/test-reminder-emails [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.email.remindertest"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	published, err := h.service.RunReminderScan(r.Context())
	if err != nil {
		log.Error("failed to run reminder scan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not run reminder scan"))
		return
	}

	log.Info("success to run reminder scan", slog.Int("published", published))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"published": published,
	}))
}
