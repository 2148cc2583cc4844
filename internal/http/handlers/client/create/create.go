// Package create реализует HTTP-обработчик для создания карточки клиента.
//
// Handler принимает multipart-форму с данными клиента и опциональным
// изображением профиля, валидирует поля, сохраняет изображение на диск,
// вызывает бизнес-логику создания клиента и возвращает ID созданной записи.
package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/billing-manager/internal/http/response"
	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
	"github.com/magabrotheeeer/billing-manager/internal/lib/upload"
	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// Handler управляет HTTP-запросами на создание клиентов.
type Handler struct {
	log        *slog.Logger        // Логгер для записи информации и ошибок
	service    Service             // Сервис бизнес-логики для создания клиентов
	uploadsDir string              // Каталог для изображений профиля
	validate   *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики создания клиента.
type Service interface {
	Create(ctx context.Context, req models.DummyClient, imagePath string) (string, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service, uploadsDir string) *Handler {
	return &Handler{
		log:        log,
		service:    service,
		uploadsDir: uploadsDir,
		validate:   validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать клиента
// @Description Создает карточку клиента из multipart-формы. Возвращает ID созданной записи.
// @Tags Clients
// @Accept  mpfd
// @Produce  json
// @Param name formData string true "Имя клиента"
// @Param phone formData string true "Телефон"
// @Param email formData string true "Email"
// @Param image formData file false "Изображение профиля (JPEG или PNG, до 5 МБ)"
// @Success 200 {object} map[string]any "Успешное создание клиента"
// @Failure 400 {object} response.ErrorResponse "Некорректная форма или изображение"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при создании клиента"
// @Security BearerAuth
// @Router /clients [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseMultipartForm(upload.MaxImageSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	req := models.DummyClient{
		Name:    r.FormValue("name"),
		Phone:   r.FormValue("phone"),
		Email:   r.FormValue("email"),
		Address: r.FormValue("address"),
		Company: r.FormValue("company"),
		Notes:   r.FormValue("notes"),
		Tags:    r.FormValue("tags"),
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	imagePath, err := upload.SaveImage(r, "image", h.uploadsDir)
	if err != nil {
		log.Error("failed to save image", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid image"))
		return
	}

	id, err := h.service.Create(r.Context(), req, imagePath)
	if err != nil {
		log.Error("failed to create client", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create client"))
		return
	}

	log.Info("success to create client", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}
