// Package verify реализует HTTP-обработчик проверки действительности токена.
package verify

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-manager/internal/http/response"
	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
)

// Handler обрабатывает запросы проверки токена.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс проверки токена.
type Service interface {
	Verify(tokenStr string) (string, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Проверить токен
// @Description Проверяет JWT-токен из заголовка Authorization и возвращает email администратора.
// @Tags Auth
// @Produce  json
// @Success 200 {object} map[string]any "Токен действителен"
// @Failure 401 {object} response.ErrorResponse "Токен отсутствует или недействителен"
// @Security BearerAuth
// @Router /auth/verify [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verify"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		log.Error("missing bearer token")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("missing bearer token"))
		return
	}

	email, err := h.service.Verify(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		log.Error("invalid token", sl.Err(err))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid token"))
		return
	}

	log.Info("token verified", slog.String("email", email))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"email": email,
	}))
}
