// Package share реализует ссылки временного публичного доступа к записям.
//
// Создавать и отзывать ссылку может только владелец записи или
// администратор. Разрешение ссылки — единственный путь чтения без
// аутентификации; срок действия перепроверяется при каждом обращении.
package share

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zeawatch/zeawatch-backend/internal/authz"
	"github.com/zeawatch/zeawatch-backend/internal/models"
	"github.com/zeawatch/zeawatch-backend/internal/storage/repository"
)

// Типизированные ошибки сервиса ссылок. Наружу ErrNotFound и ErrExpired
// обязаны выглядеть одинаково — различие существует только для
// серверного лога и метрик.
var (
	// ErrNotFound — токен неизвестен (или запись удалена).
	ErrNotFound = errors.New("share link not found")
	// ErrExpired — токен известен, но срок действия истёк.
	ErrExpired = errors.New("share link expired")
	// ErrPermission — принципал не владелец записи и не администратор.
	ErrPermission = errors.New("permission denied")
	// ErrAllocation — не удалось выделить уникальный токен.
	ErrAllocation = errors.New("failed to allocate share token")
)

// Количество байт энтропии токена и попыток при коллизии.
const (
	tokenBytes       = 32
	maxTokenAttempts = 5
)

var resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "zeawatch_share_resolutions_total",
	Help: "Share link resolutions by outcome.",
}, []string{"outcome"})

// LinkRepository описывает контракт хранилища ссылок.
type LinkRepository interface {
	CreateShareLink(ctx context.Context, link models.ShareLink) error
	GetShareLink(ctx context.Context, token string) (*models.ShareLink, error)
	RevokeShareLink(ctx context.Context, token string, now time.Time) error
}

// AnalysisRepository описывает доступ к записям для проверки владения
// и построения публичной проекции.
type AnalysisRepository interface {
	GetAnalysis(ctx context.Context, id string) (*models.Analysis, error)
}

// Service — операции над ссылками общего доступа.
type Service struct {
	links      LinkRepository
	analyses   AnalysisRepository
	defaultTTL time.Duration
	now        func() time.Time
}

// New создает новый сервис ссылок. defaultTTL применяется, когда клиент
// не указал срок: бессрочных ссылок не существует.
func New(links LinkRepository, analyses AnalysisRepository, defaultTTL time.Duration) *Service {
	return &Service{
		links:      links,
		analyses:   analyses,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Create выпускает ссылку на запись analysisID. Nil ttl означает срок
// по умолчанию; явный нулевой ttl даёт ссылку, истёкшую сразу.
func (s *Service) Create(ctx context.Context, principal authz.Principal, analysisID string, ttl *time.Duration) (*models.ShareLink, error) {
	const op = "share.Create"

	a, err := s.analyses.GetAnalysis(ctx, analysisID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !authz.Permit(principal, authz.ActionShare, a.OwnerUID) {
		return nil, ErrPermission
	}

	effectiveTTL := s.defaultTTL
	if ttl != nil {
		effectiveTTL = *ttl
	}
	now := s.now().UTC()
	link := models.ShareLink{
		AnalysisID: analysisID,
		CreatedBy:  principal.UID,
		ExpiresAt:  now.Add(effectiveTTL),
		CreatedAt:  now,
	}

	// Коллизия при 256 битах энтропии практически невозможна,
	// но хранилище всё равно проверяет уникальность.
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		link.Token, err = newToken()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		err = s.links.CreateShareLink(ctx, link)
		if err == nil {
			return &link, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil, ErrAllocation
}

// Resolve возвращает публичную проекцию записи по токену.
// Срок действия проверяется заново при каждом вызове.
func (s *Service) Resolve(ctx context.Context, token string) (*models.AnalysisView, error) {
	const op = "share.Resolve"

	link, err := s.links.GetShareLink(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			resolutionsTotal.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if link.Expired(s.now()) {
		resolutionsTotal.WithLabelValues("expired").Inc()
		return nil, ErrExpired
	}

	a, err := s.analyses.GetAnalysis(ctx, link.AnalysisID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			resolutionsTotal.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resolutionsTotal.WithLabelValues("ok").Inc()
	view := a.View()
	return &view, nil
}

// Revoke отзывает ссылку, выставляя её срок в текущий момент.
// Отзыв уже истёкшей ссылки — успешный no-op.
func (s *Service) Revoke(ctx context.Context, principal authz.Principal, token string) error {
	const op = "share.Revoke"

	link, err := s.links.GetShareLink(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	a, err := s.analyses.GetAnalysis(ctx, link.AnalysisID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if !authz.Permit(principal, authz.ActionShare, a.OwnerUID) {
		return ErrPermission
	}

	if err := s.links.RevokeShareLink(ctx, token, s.now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
