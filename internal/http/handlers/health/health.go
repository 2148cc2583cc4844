// Package health реализует HTTP-обработчик проверки доступности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-manager/internal/http/response"
	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
)

// Pinger описывает проверку соединения с базой данных.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler обрабатывает запросы проверки доступности.
type Handler struct {
	log *slog.Logger
	db  Pinger
}

// New создает новый Handler с переданными логгером и базой.
func New(log *slog.Logger, db Pinger) *Handler {
	return &Handler{log: log, db: db}
}

// ServeHTTP godoc
// @Summary Проверка доступности
// @Description Возвращает состояние сервиса и соединения с базой данных.
// @Tags Health
// @Produce  json
// @Success 200 {object} map[string]any "Сервис доступен"
// @Failure 503 {object} response.ErrorResponse "База данных недоступна"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.log.Error("database ping failed", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("database unavailable"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status": "ok",
	}))
}
