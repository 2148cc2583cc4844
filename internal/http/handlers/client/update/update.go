// Package update реализует HTTP-обработчик для редактирования клиента.
//
// Handler принимает multipart-форму с данными клиента; если в форме нет
// нового изображения, прежнее изображение профиля сохраняется.
package update

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/billing-manager/internal/http/response"
	"github.com/magabrotheeeer/billing-manager/internal/lib/sl"
	"github.com/magabrotheeeer/billing-manager/internal/lib/upload"
	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// Handler управляет HTTP-запросами на редактирование клиентов.
type Handler struct {
	log        *slog.Logger
	service    Service
	uploadsDir string
	validate   *validator.Validate
}

// Service описывает интерфейс бизнес-логики редактирования клиента.
type Service interface {
	Update(ctx context.Context, req models.DummyClient, id, imagePath string) (int, error)
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
// @Summary Обновить клиента
// @Description Обновляет карточку клиента из multipart-формы.
// @Tags Clients
// @Accept  mpfd
// @Produce  json
// @Param id path string true "ID клиента"
// @Success 200 {object} map[string]any "Число обновленных записей"
// @Failure 400 {object} response.ErrorResponse "Некорректная форма или изображение"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /clients/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.client.update"
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

	id := chi.URLParam(r, "id")
	res, err := h.service.Update(r.Context(), req, id, imagePath)
	if err != nil {
		log.Error("failed to update client", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update client"))
		return
	}

	log.Info("success to update client", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"updated": res,
	}))
}
