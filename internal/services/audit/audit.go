// Package audit ведёт журнал аудита: строки в базе данных и,
// при включённой настройке, события в RabbitMQ. Запись аудита
// никогда не валит основную операцию — ошибки только логируются.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/zeawatch/zeawatch-backend/internal/events"
	"github.com/zeawatch/zeawatch-backend/internal/lib/sl"
)

// Repository описывает контракт хранения записей аудита.
type Repository interface {
	CreateAuditLog(ctx context.Context, userUID, action string, details map[string]any, ip string) error
}

// Publisher описывает контракт публикации событий аудита.
type Publisher interface {
	Publish(routingKey string, event events.Event) error
}

// Service пишет аудит в хранилище и публикует события.
type Service struct {
	repo Repository
	pub  Publisher // nil, если публикация выключена
	log  *slog.Logger
}

// New создает новый сервис аудита. Publisher может быть nil.
func New(repo Repository, pub Publisher, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		pub:  pub,
		log:  log,
	}
}

// Record фиксирует событие аудита. Действие служит и ключом
// маршрутизации события.
func (s *Service) Record(ctx context.Context, userUID, action string, details map[string]any, ip string) {
	const op = "audit.Record"

	if err := s.repo.CreateAuditLog(ctx, userUID, action, details, ip); err != nil {
		s.log.Error("failed to write audit log", sl.Op(op), sl.Err(err))
	}

	if s.pub == nil {
		return
	}
	event := events.Event{
		Action:     action,
		UserUID:    userUID,
		Details:    details,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.pub.Publish(action, event); err != nil {
		s.log.Error("failed to publish audit event", sl.Op(op), sl.Err(err))
	}
}
