// Package list реализует HTTP-обработчик листинга записей анализа.
//
// Без параметра user возвращает записи текущего пользователя.
// Параметр user доступен только администраторам.
package list

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/zeawatch/zeawatch-backend/internal/authz"
	"github.com/zeawatch/zeawatch-backend/internal/http/middlewarectx"
	"github.com/zeawatch/zeawatch-backend/internal/http/response"
	"github.com/zeawatch/zeawatch-backend/internal/lib/sl"
	"github.com/zeawatch/zeawatch-backend/internal/models"
	"github.com/zeawatch/zeawatch-backend/internal/services/analysis"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Handler обрабатывает запросы листинга записей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики листинга.
type Service interface {
	List(ctx context.Context, principal authz.Principal, targetUID string, limit, offset int) ([]*models.Analysis, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Листинг записей анализа
// @Description Возвращает записи текущего пользователя, новые раньше старых. Администратор может запросить записи любого пользователя параметром user.
// @Tags Analyses
// @Produce  json
// @Security BearerAuth
// @Param user query string false "UID владельца (только для администратора)"
// @Param limit query int false "Размер страницы, по умолчанию 50"
// @Param offset query int false "Смещение страницы"
// @Success 200 {object} response.Response "Список записей"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 403 {object} response.ErrorResponse "Чужие записи запрошены не администратором"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /analyses [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.analysis.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid limit"))
			return
		}
		limit = min(v, maxLimit)
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid offset"))
			return
		}
		offset = v
	}

	principal := middlewarectx.PrincipalFromContext(r.Context())
	targetUID := r.URL.Query().Get("user")

	items, err := h.service.List(r.Context(), principal, targetUID, limit, offset)
	if err != nil {
		if errors.Is(err, analysis.ErrPermission) {
			log.Info("foreign listing denied", slog.String("target", targetUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("permission denied"))
			return
		}
		log.Error("failed to list analyses", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list analyses"))
		return
	}

	log.Info("analyses listed", slog.Int("count", len(items)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"analyses": items,
		"limit":    limit,
		"offset":   offset,
	}))
}
