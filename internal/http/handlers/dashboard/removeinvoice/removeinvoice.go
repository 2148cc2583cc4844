// Package removeinvoice реализует HTTP-обработчик для удаления счета из дашборда
// по его номеру.
package removeinvoice

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-manager/internal/http/response"
	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
)

// Handler обрабатывает запросы на удаление счета по номеру.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики удаления счета по номеру.
type Service interface {
	RemoveByNumber(ctx context.Context, invoiceNumber string) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить счёт по номеру
// @Description Удаляет счёт по его номеру, например INV-2026-001.
// @Tags Dashboard
// @Produce  json
// @Param invoiceId path string true "Номер счета"
// @Success 200 {object} map[string]any "Число удаленных записей"
// @Failure 400 {object} response.ErrorResponse "Номер счета не указан"
// @Failure 404 {object} response.ErrorResponse "Счёт не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /dashboard/invoices/{invoiceId}/remove [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.removeinvoice"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	invoiceNumber := chi.URLParam(r, "invoiceId")
	if invoiceNumber == "" {
		log.Error("invoice number is empty")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invoice number is required"))
		return
	}

	res, err := h.service.RemoveByNumber(r.Context(), invoiceNumber)
	if err != nil {
		log.Error("failed to remove invoice", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove invoice"))
		return
	}
	if res == 0 {
		log.Info("invoice not found", slog.String("invoice_number", invoiceNumber))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("invoice not found"))
		return
	}

	log.Info("success to remove invoice", slog.String("invoice_number", invoiceNumber))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"removed": res,
	}))
}
