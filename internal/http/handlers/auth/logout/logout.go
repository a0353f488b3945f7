// Package logout реализует HTTP-обработчик выхода.
//
// Отзывает refresh-токен и стирает refresh-cookie. Выход с уже
// невалидным токеном считается успешным.
package logout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	authcookie "github.com/zeawatch/zeawatch-backend/internal/http/handlers/auth"
	"github.com/zeawatch/zeawatch-backend/internal/http/response"
	"github.com/zeawatch/zeawatch-backend/internal/lib/sl"
)

// Request — структура входных данных для выхода. Токен опционален:
// при отсутствии берётся из cookie.
type Request struct {
	RefreshToken string `json:"refresh_token"`
}

// Handler обрабатывает HTTP-запросы выхода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики выхода.
type Service interface {
	Logout(ctx context.Context, refreshToken string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Description Отзывает refresh-токен и стирает refresh-cookie.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request false "Refresh-токен (опционально, иначе cookie)"
// @Success 200 {object} response.Response "Выход выполнен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	token := authcookie.RefreshTokenFromRequest(r, req.RefreshToken)
	if token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			log.Error("failed to logout", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not logout"))
			return
		}
	}

	authcookie.ClearRefreshCookie(w)

	log.Info("logout success")
	render.JSON(w, r, response.OK())
}
