// Package migration переносит гостевые записи в аккаунт пользователя.
//
// Перенос идемпотентен: записи дедуплицируются по отпечатку содержимого,
// поэтому повторная отправка той же пачки не создаёт дубликатов.
// Отказ одной записи не прерывает перенос остальных.
package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zeawatch/zeawatch-backend/internal/lib/fingerprint"
	"github.com/zeawatch/zeawatch-backend/internal/models"
	"github.com/zeawatch/zeawatch-backend/internal/storage/repository"
)

var migratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "zeawatch_migrated_analyses_total",
	Help: "Guest analyses processed by migration, by outcome.",
}, []string{"outcome"})

// Repository описывает контракт хранилища для переноса.
type Repository interface {
	CreateAnalysis(ctx context.Context, a models.Analysis) (string, error)
	ListFingerprintsByOwner(ctx context.Context, ownerUID string) (map[string]struct{}, error)
}

// Service — перенос гостевых записей.
type Service struct {
	repo Repository
}

// New создает новый сервис переноса.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Migrate переносит пачку гостевых записей пользователю userUID и
// возвращает отчёт с числом принятых, дублированных и отказавших
// записей. Временные метки клиента сохраняются как есть.
func (s *Service) Migrate(ctx context.Context, userUID string, items []models.GuestAnalysis) (*models.MigrationReport, error) {
	const op = "migration.Migrate"

	// Снимок уже известных отпечатков позволяет отсеять большинство
	// дубликатов без обращения к базе. Гонку двух одновременных
	// переносов закрывает уникальный индекс по (owner_uid, fingerprint).
	known, err := s.repo.ListFingerprintsByOwner(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report := &models.MigrationReport{}
	for _, item := range items {
		fp := fingerprint.Compute(item.CreatedAt, item.Label, item.Score, item.ImageURL)
		if _, ok := known[fp]; ok {
			report.Duplicates++
			migratedTotal.WithLabelValues("duplicate").Inc()
			continue
		}

		a := models.Analysis{
			ID:          uuid.New().String(),
			OwnerUID:    userUID,
			Label:       item.Label,
			Score:       item.Score,
			ImageURL:    item.ImageURL,
			Notes:       item.Notes,
			Fingerprint: fp,
			CreatedAt:   item.CreatedAt.UTC(),
		}
		_, err := s.repo.CreateAnalysis(ctx, a)
		switch {
		case err == nil:
			known[fp] = struct{}{}
			report.Accepted++
			migratedTotal.WithLabelValues("accepted").Inc()
		case errors.Is(err, repository.ErrDuplicate):
			known[fp] = struct{}{}
			report.Duplicates++
			migratedTotal.WithLabelValues("duplicate").Inc()
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%s: %w", op, err)
		default:
			report.Failed++
			migratedTotal.WithLabelValues("failed").Inc()
		}
	}
	return report, nil
}
