// Package weeklyemail реализует HTTP-обработчик регистрации еженедельной рассылки.
package weeklyemail

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
	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// Handler обрабатывает запросы на регистрацию еженедельной рассылки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики рассылок.
type Service interface {
	RegisterWeeklyEmail(ctx context.Context, req models.DummyBroadcast) (*models.BroadcastSchedule, error)
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
// @Summary Зарегистрировать еженедельную рассылку
// @Description Сохраняет расписание еженедельной рассылки; письма отправляются планировщиком в указанный день и время.
// @Tags Email
// @Accept  json
// @Produce  json
// @Param request body models.DummyBroadcast true "Параметры рассылки"
// @Success 200 {object} map[string]any "Рассылка зарегистрирована"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или параметры"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /email/weekly-email [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.email.weeklyemail"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyBroadcast
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

	schedule, err := h.service.RegisterWeeklyEmail(r.Context(), req)
	if err != nil {
		log.Error("failed to register weekly email", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	log.Info("success to register weekly email",
		slog.String("id", schedule.ID),
		slog.Int("weekday", schedule.Weekday))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"schedule": schedule,
	}))
}
