// Package read реализует HTTP-обработчик чтения записи анализа по ID.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/zeawatch/zeawatch-backend/internal/authz"
	"github.com/zeawatch/zeawatch-backend/internal/http/middlewarectx"
	"github.com/zeawatch/zeawatch-backend/internal/http/response"
	"github.com/zeawatch/zeawatch-backend/internal/lib/sl"
	"github.com/zeawatch/zeawatch-backend/internal/models"
	"github.com/zeawatch/zeawatch-backend/internal/services/analysis"
)

// Handler обрабатывает запросы чтения записи по идентификатору.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения.
type Service interface {
	Get(ctx context.Context, principal authz.Principal, id string) (*models.Analysis, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Чтение записи анализа
// @Description Возвращает запись по ID. Доступна владельцу и администратору.
// @Tags Analyses
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID записи"
// @Success 200 {object} response.Response "Запись"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 403 {object} response.ErrorResponse "Запись принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /analyses/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.analysis.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	principal := middlewarectx.PrincipalFromContext(r.Context())

	res, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("analysis not found"))
		case errors.Is(err, analysis.ErrPermission):
			log.Info("read denied", slog.String("id", id), slog.String("uid", principal.UID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("permission denied"))
		default:
			log.Error("failed to read analysis", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not read analysis"))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"analysis": res,
	}))
}
