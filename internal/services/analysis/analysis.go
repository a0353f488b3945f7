// Package analysis реализует операции над записями анализа.
// Каждая операция чтения/удаления проходит через предикат authz.Permit;
// временные сбои хранилища повторяются с экспоненциальной задержкой.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/zeawatch/zeawatch-backend/internal/authz"
	"github.com/zeawatch/zeawatch-backend/internal/lib/fingerprint"
	"github.com/zeawatch/zeawatch-backend/internal/models"
	"github.com/zeawatch/zeawatch-backend/internal/storage/repository"
)

// Типизированные ошибки операций над записями.
var (
	// ErrNotFound — запись не существует.
	ErrNotFound = errors.New("analysis not found")
	// ErrPermission — принципалу запрещено действие над записью.
	ErrPermission = errors.New("permission denied")
)

// Количество попыток при временных сбоях хранилища.
const maxStorageRetries = 3

// Repository описывает контракт хранилища записей анализа.
type Repository interface {
	CreateAnalysis(ctx context.Context, a models.Analysis) (string, error)
	GetAnalysis(ctx context.Context, id string) (*models.Analysis, error)
	ListAnalysesByOwner(ctx context.Context, ownerUID string, limit, offset int) ([]*models.Analysis, error)
	DeleteAnalysis(ctx context.Context, id string) (int, error)
}

// CreateInput — данные новой записи от аутентифицированного пользователя.
type CreateInput struct {
	Label    string
	Score    float64
	ImageURL string
	Notes    string
}

// Service — операции над записями анализа.
type Service struct {
	repo Repository
}

// New создает новый сервис записей.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create сохраняет новую запись с владельцем principal. Аноним сюда
// не попадает: его записи остаются в гостевом журнале клиента.
func (s *Service) Create(ctx context.Context, principal authz.Principal, input CreateInput) (*models.Analysis, error) {
	const op = "analysis.Create"

	if !principal.IsAuthenticated() {
		return nil, ErrPermission
	}

	now := time.Now().UTC()
	a := models.Analysis{
		ID:          uuid.New().String(),
		OwnerUID:    principal.UID,
		Label:       input.Label,
		Score:       input.Score,
		ImageURL:    input.ImageURL,
		Notes:       input.Notes,
		Fingerprint: fingerprint.Compute(now, input.Label, input.Score, input.ImageURL),
		CreatedAt:   now,
	}

	err := withStorageRetry(ctx, func() error {
		_, err := s.repo.CreateAnalysis(ctx, a)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &a, nil
}

// Get возвращает запись, если принципалу разрешено её чтение.
func (s *Service) Get(ctx context.Context, principal authz.Principal, id string) (*models.Analysis, error) {
	const op = "analysis.Get"

	a, err := s.fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !authz.Permit(principal, authz.ActionRead, a.OwnerUID) {
		return nil, ErrPermission
	}
	return a, nil
}

// List возвращает записи владельца targetUID. Пустой targetUID означает
// собственные записи принципала; чужие записи доступны только администратору.
func (s *Service) List(ctx context.Context, principal authz.Principal, targetUID string, limit, offset int) ([]*models.Analysis, error) {
	const op = "analysis.List"

	if !principal.IsAuthenticated() {
		return nil, ErrPermission
	}
	if targetUID == "" {
		targetUID = principal.UID
	}
	if targetUID != principal.UID && !principal.IsAdmin() {
		return nil, ErrPermission
	}

	var result []*models.Analysis
	err := withStorageRetry(ctx, func() error {
		var err error
		result, err = s.repo.ListAnalysesByOwner(ctx, targetUID, limit, offset)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Delete удаляет запись, если принципал — её владелец или администратор.
func (s *Service) Delete(ctx context.Context, principal authz.Principal, id string) error {
	const op = "analysis.Delete"

	a, err := s.fetch(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !authz.Permit(principal, authz.ActionDelete, a.OwnerUID) {
		return ErrPermission
	}

	err = withStorageRetry(ctx, func() error {
		_, err := s.repo.DeleteAnalysis(ctx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, id string) (*models.Analysis, error) {
	var a *models.Analysis
	err := withStorageRetry(ctx, func() error {
		var err error
		a, err = s.repo.GetAnalysis(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// withStorageRetry повторяет операцию при временных сбоях хранилища.
// Ошибки "не найдено", "дубликат" и отмена контекста не повторяются.
func withStorageRetry(ctx context.Context, fn func() error) error {
	operation := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrDuplicate) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxStorageRetries-1), ctx)
	return backoff.Retry(operation, policy)
}
