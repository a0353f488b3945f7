// Package revoke реализует HTTP-обработчик отзыва ссылки общего доступа.
package revoke

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
	"github.com/zeawatch/zeawatch-backend/internal/services/share"
)

// Handler обрабатывает запросы отзыва ссылки.
type Handler struct {
	log     *slog.Logger
	service Service
	audit   Auditor
}

// Service описывает интерфейс бизнес-логики отзыва.
type Service interface {
	Revoke(ctx context.Context, principal authz.Principal, token string) error
}

// Auditor пишет события аудита.
type Auditor interface {
	Record(ctx context.Context, userUID, action string, details map[string]any, ip string)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, audit Auditor) *Handler {
	return &Handler{
		log:     log,
		service: service,
		audit:   audit,
	}
}

// ServeHTTP godoc
// @Summary Отзыв ссылки общего доступа
// @Description Отзывает ссылку немедленно. Повторный отзыв безопасен.
// @Tags Shares
// @Produce  json
// @Security BearerAuth
// @Param token path string true "Токен ссылки"
// @Success 200 {object} response.Response "Ссылка отозвана"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 403 {object} response.ErrorResponse "Ссылка принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Ссылка не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /shares/{token} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.share.revoke"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := chi.URLParam(r, "token")
	principal := middlewarectx.PrincipalFromContext(r.Context())

	if err := h.service.Revoke(r.Context(), principal, token); err != nil {
		switch {
		case errors.Is(err, share.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("share link not found"))
		case errors.Is(err, share.ErrPermission):
			log.Info("revoke denied", slog.String("uid", principal.UID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("permission denied"))
		default:
			log.Error("failed to revoke share link", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not revoke share link"))
		}
		return
	}

	h.audit.Record(r.Context(), principal.UID, "share.revoked", nil, r.RemoteAddr)

	log.Info("share link revoked")
	render.JSON(w, r, response.OK())
}
