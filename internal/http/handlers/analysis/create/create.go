// Package create реализует HTTP-обработчик создания записи анализа.
//
// Декодирует и валидирует входные данные, определяет владельца по
// принципалу из контекста и делегирует создание бизнес-логике.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/zeawatch/zeawatch-backend/internal/authz"
	"github.com/zeawatch/zeawatch-backend/internal/http/middlewarectx"
	"github.com/zeawatch/zeawatch-backend/internal/http/response"
	"github.com/zeawatch/zeawatch-backend/internal/lib/sl"
	"github.com/zeawatch/zeawatch-backend/internal/models"
	"github.com/zeawatch/zeawatch-backend/internal/services/analysis"
)

// Request — структура входных данных новой записи.
type Request struct {
	Label    string  `json:"label" validate:"required,max=120"`
	Score    float64 `json:"score" validate:"min=0,max=1"`
	ImageURL string  `json:"image_url" validate:"omitempty,url"`
	Notes    string  `json:"notes" validate:"max=2000"`
}

// Handler обрабатывает запросы создания записи.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, input analysis.CreateInput) (*models.Analysis, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создание записи анализа
// @Description Сохраняет результат анализа за текущим пользователем.
// @Tags Analyses
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Данные анализа"
// @Success 201 {object} response.Response "Запись создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /analyses [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.analysis.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
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

	principal := middlewarectx.PrincipalFromContext(r.Context())
	res, err := h.service.Create(r.Context(), principal, analysis.CreateInput{
		Label:    req.Label,
		Score:    req.Score,
		ImageURL: req.ImageURL,
		Notes:    req.Notes,
	})
	if err != nil {
		if errors.Is(err, analysis.ErrPermission) {
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("missing or invalid token"))
			return
		}
		log.Error("failed to create analysis", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create analysis"))
		return
	}

	log.Info("analysis created", slog.String("id", res.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"analysis": res,
	}))
}
