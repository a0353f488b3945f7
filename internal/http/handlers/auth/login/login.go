// Package login реализует HTTP-обработчик входа пользователей.
//
// Декодирует и валидирует учетные данные, делегирует вход сервису
// аутентификации и при успехе возвращает access-токен в теле ответа.
// Refresh-токен уходит только в HttpOnly cookie и в тело не попадает,
// чтобы он был недоступен скриптам страницы.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	authcookie "github.com/zeawatch/zeawatch-backend/internal/http/handlers/auth"
	"github.com/zeawatch/zeawatch-backend/internal/http/response"
	"github.com/zeawatch/zeawatch-backend/internal/lib/sl"
	"github.com/zeawatch/zeawatch-backend/internal/models"
	"github.com/zeawatch/zeawatch-backend/internal/services/auth"
)

// Request — структура входных данных для входа.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Handler обрабатывает HTTP-запросы входа.
type Handler struct {
	log        *slog.Logger
	service    Service
	audit      Auditor
	refreshTTL time.Duration
	validate   *validator.Validate
}

// Service описывает интерфейс бизнес-логики входа.
type Service interface {
	Login(ctx context.Context, email, rawPassword string) (*auth.TokenPair, *models.User, error)
}

// Auditor пишет события аудита.
type Auditor interface {
	Record(ctx context.Context, userUID, action string, details map[string]any, ip string)
}

// New создает новый экземпляр Handler. refreshTTL задаёт срок жизни
// refresh-cookie и должен совпадать со сроком самого токена.
func New(log *slog.Logger, service Service, audit Auditor, refreshTTL time.Duration) *Handler {
	return &Handler{
		log:        log,
		service:    service,
		audit:      audit,
		refreshTTL: refreshTTL,
		validate:   validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Аутентифицирует пользователя по email и паролю. Возвращает access-токен, refresh-токен выставляется в HttpOnly cookie.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 403 {object} response.ErrorResponse "Аккаунт не подтверждён"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	pair, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			log.Info("invalid credentials", slog.String("email", req.Email))
			h.audit.Record(r.Context(), "", "user.login_failed",
				map[string]any{"email": req.Email, "reason": "invalid_credentials"}, r.RemoteAddr)
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid credentials"))
		case errors.Is(err, auth.ErrNotVerified):
			log.Info("account not verified", slog.String("email", req.Email))
			h.audit.Record(r.Context(), "", "user.login_failed",
				map[string]any{"email": req.Email, "reason": "not_verified"}, r.RemoteAddr)
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("account is not verified"))
		default:
			log.Error("login failed", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not login"))
		}
		return
	}

	h.audit.Record(r.Context(), user.UID, "user.login", nil, r.RemoteAddr)
	authcookie.SetRefreshCookie(w, pair.Refresh, h.refreshTTL)

	log.Info("login success", slog.String("uid", user.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"access_token": pair.Access,
		"uid":          user.UID,
		"name":         user.Name,
		"role":         user.Role,
	}))
}
