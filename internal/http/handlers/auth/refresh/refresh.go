// Package refresh реализует HTTP-обработчик ротации токенов.
//
// Принимает refresh-токен из тела запроса или HttpOnly cookie,
// делегирует ротацию сервису аутентификации и возвращает новый
// access-токен. Новый refresh-токен уходит только в HttpOnly cookie.
// Любая причина отказа выражается одним и тем же ответом 401.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	authcookie "github.com/zeawatch/zeawatch-backend/internal/http/handlers/auth"
	"github.com/zeawatch/zeawatch-backend/internal/http/response"
	"github.com/zeawatch/zeawatch-backend/internal/lib/sl"
	"github.com/zeawatch/zeawatch-backend/internal/services/auth"
)

// Request — структура входных данных для ротации. Токен опционален:
// при отсутствии берётся из cookie.
type Request struct {
	RefreshToken string `json:"refresh_token"`
}

// Handler обрабатывает HTTP-запросы ротации токенов.
type Handler struct {
	log        *slog.Logger
	service    Service
	refreshTTL time.Duration
}

// Service описывает интерфейс бизнес-логики ротации.
type Service interface {
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, refreshTTL time.Duration) *Handler {
	return &Handler{
		log:        log,
		service:    service,
		refreshTTL: refreshTTL,
	}
}

// ServeHTTP godoc
// @Summary Ротация токенов
// @Description Обменивает refresh-токен на новый access-токен, новый refresh-токен выставляется в HttpOnly cookie. Старый refresh-токен отзывается.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request false "Refresh-токен (опционально, иначе cookie)"
// @Success 200 {object} response.Response "Новый access-токен"
// @Failure 401 {object} response.ErrorResponse "Токен не принят"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"

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
	if token == "" {
		log.Info("refresh token missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid refresh token"))
		return
	}

	pair, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefresh) {
			log.Info("refresh token rejected")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid refresh token"))
			return
		}
		log.Error("failed to refresh tokens", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not refresh tokens"))
		return
	}

	authcookie.SetRefreshCookie(w, pair.Refresh, h.refreshTTL)

	log.Info("tokens rotated")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"access_token": pair.Access,
	}))
}
