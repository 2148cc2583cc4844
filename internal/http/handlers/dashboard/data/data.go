// Package data реализует HTTP-обработчик для получения сводных данных дашборда.
package data

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

// Handler обрабатывает запросы на сводку дашборда.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики дашборда.
type Service interface {
	Data(ctx context.Context) (*models.DashboardData, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сводные данные дашборда
// @Description Возвращает KPI, историю платежей и последние подписки и счета.
// @Tags Dashboard
// @Produce  json
// @Success 200 {object} models.DashboardData "Данные дашборда"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /dashboard/data [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.data"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.Data(r.Context())
	if err != nil {
		log.Error("failed to build dashboard data", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not build dashboard data"))
		return
	}

	log.Info("success to build dashboard data")
	render.JSON(w, r, res)
}
