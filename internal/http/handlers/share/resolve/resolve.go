// Package resolve реализует публичный HTTP-обработчик разрешения
// ссылки общего доступа.
//
// Неизвестный и истёкший токены снаружи неразличимы: оба дают один
// и тот же ответ 404. Причину отказа видно только в серверном логе.
package resolve

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/zeawatch/zeawatch-backend/internal/http/response"
	"github.com/zeawatch/zeawatch-backend/internal/lib/sl"
	"github.com/zeawatch/zeawatch-backend/internal/models"
	"github.com/zeawatch/zeawatch-backend/internal/services/share"
)

// Handler обрабатывает запросы разрешения ссылки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики разрешения.
type Service interface {
	Resolve(ctx context.Context, token string) (*models.AnalysisView, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Разрешение ссылки общего доступа
// @Description Возвращает публичную проекцию записи по токену ссылки. Аутентификация не требуется.
// @Tags Shares
// @Produce  json
// @Param token path string true "Токен ссылки"
// @Success 200 {object} response.Response "Публичная проекция записи"
// @Failure 404 {object} response.ErrorResponse "Ссылка недоступна"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /shares/{token} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.share.resolve"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := chi.URLParam(r, "token")

	view, err := h.service.Resolve(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, share.ErrNotFound), errors.Is(err, share.ErrExpired):
			// Ответ одинаковый для обеих причин, различие только в логе.
			log.Info("share link unavailable", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("share link not available"))
		default:
			log.Error("failed to resolve share link", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not resolve share link"))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"analysis": view,
	}))
}
