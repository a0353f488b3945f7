// Package create реализует HTTP-обработчик выпуска ссылки общего доступа.
//
// Срок действия задаётся в часах; при отсутствии применяется срок по
// умолчанию. Ссылку может выпустить только владелец записи или
// администратор.
package create

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

	"github.com/zeawatch/zeawatch-backend/internal/authz"
	"github.com/zeawatch/zeawatch-backend/internal/http/middlewarectx"
	"github.com/zeawatch/zeawatch-backend/internal/http/response"
	"github.com/zeawatch/zeawatch-backend/internal/lib/sl"
	"github.com/zeawatch/zeawatch-backend/internal/models"
	"github.com/zeawatch/zeawatch-backend/internal/services/share"
)

// Request — структура входных данных выпуска ссылки.
// TTLHours опционален: nil означает срок по умолчанию, ноль — ссылку,
// истёкшую сразу после выпуска.
type Request struct {
	AnalysisID string `json:"analysis_id" validate:"required,uuid"`
	TTLHours   *int   `json:"ttl_hours" validate:"omitempty,min=0,max=8760"`
}

// Handler обрабатывает запросы выпуска ссылок.
type Handler struct {
	log      *slog.Logger
	service  Service
	audit    Auditor
	baseURL  string
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики выпуска ссылки.
type Service interface {
	Create(ctx context.Context, principal authz.Principal, analysisID string, ttl *time.Duration) (*models.ShareLink, error)
}

// Auditor пишет события аудита.
type Auditor interface {
	Record(ctx context.Context, userUID, action string, details map[string]any, ip string)
}

// New создает новый экземпляр Handler. baseURL — префикс публичных
// ссылок, к нему дописывается токен.
func New(log *slog.Logger, service Service, audit Auditor, baseURL string) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		audit:    audit,
		baseURL:  baseURL,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Выпуск ссылки общего доступа
// @Description Выпускает публичную ссылку на запись анализа с ограниченным сроком действия.
// @Tags Shares
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Запись и срок действия"
// @Success 201 {object} response.Response "Ссылка выпущена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 403 {object} response.ErrorResponse "Запись принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Запись не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /shares [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.share.create"

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

	var ttl *time.Duration
	if req.TTLHours != nil {
		d := time.Duration(*req.TTLHours) * time.Hour
		ttl = &d
	}

	principal := middlewarectx.PrincipalFromContext(r.Context())
	link, err := h.service.Create(r.Context(), principal, req.AnalysisID, ttl)
	if err != nil {
		switch {
		case errors.Is(err, share.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("analysis not found"))
		case errors.Is(err, share.ErrPermission):
			log.Info("share denied", slog.String("analysis_id", req.AnalysisID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("permission denied"))
		default:
			log.Error("failed to create share link", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create share link"))
		}
		return
	}

	h.audit.Record(r.Context(), principal.UID, "share.created",
		map[string]any{"analysis_id": req.AnalysisID}, r.RemoteAddr)

	log.Info("share link created", slog.String("analysis_id", req.AnalysisID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":      link.Token,
		"url":        h.baseURL + "/" + link.Token,
		"expires_at": link.ExpiresAt,
	}))
}
