// Package migrate реализует HTTP-обработчик переноса гостевых записей
// в аккаунт текущего пользователя.
//
// Перенос идемпотентен: повторная отправка той же пачки даёт отчёт
// с дубликатами вместо новых записей.
package migrate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/zeawatch/zeawatch-backend/internal/http/middlewarectx"
	"github.com/zeawatch/zeawatch-backend/internal/http/response"
	"github.com/zeawatch/zeawatch-backend/internal/lib/sl"
	"github.com/zeawatch/zeawatch-backend/internal/models"
)

// Request — пачка гостевых записей для переноса.
type Request struct {
	Items []models.GuestAnalysis `json:"items" validate:"required,min=1,max=500,dive"`
}

// Handler обрабатывает запросы переноса.
type Handler struct {
	log      *slog.Logger
	service  Service
	audit    Auditor
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики переноса.
type Service interface {
	Migrate(ctx context.Context, userUID string, items []models.GuestAnalysis) (*models.MigrationReport, error)
}

// Auditor пишет события аудита.
type Auditor interface {
	Record(ctx context.Context, userUID, action string, details map[string]any, ip string)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, audit Auditor) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		audit:    audit,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Перенос гостевых записей
// @Description Переносит записи гостевого режима в аккаунт текущего пользователя и возвращает отчёт.
// @Tags Migration
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Гостевые записи"
// @Success 200 {object} response.Response "Отчёт о переносе"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /migrate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.migrate"

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

	report, err := h.service.Migrate(r.Context(), principal.UID, req.Items)
	if err != nil {
		log.Error("failed to migrate guest analyses", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not migrate analyses"))
		return
	}

	h.audit.Record(r.Context(), principal.UID, "migration.completed", map[string]any{
		"accepted":   report.Accepted,
		"duplicates": report.Duplicates,
		"failed":     report.Failed,
	}, r.RemoteAddr)

	log.Info("migration completed",
		slog.Int("accepted", report.Accepted),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("failed", report.Failed),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"report": report,
	}))
}
