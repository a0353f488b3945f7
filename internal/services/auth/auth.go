// Package auth содержит логику бизнес-уровня для регистрации,
// входа, обновления и отзыва токенов.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zeawatch/zeawatch-backend/internal/lib/jwt"
	"github.com/zeawatch/zeawatch-backend/internal/lib/password"
	"github.com/zeawatch/zeawatch-backend/internal/models"
	"github.com/zeawatch/zeawatch-backend/internal/storage/repository"
)

// Типизированные ошибки аутентификации. Наружу уходят только они:
// детали (неизвестный email или неверный пароль) не различаются.
var (
	// ErrEmailTaken — email уже зарегистрирован.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials — неверная пара email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotVerified — учётная запись не подтверждена.
	ErrNotVerified = errors.New("account is not verified")
	// ErrInvalidRefresh — refresh-токен искажён, истёк или отозван.
	ErrInvalidRefresh = errors.New("invalid refresh token")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByEmail возвращает пользователя по email или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)

	// UpdateLastLogin фиксирует время последнего входа.
	UpdateLastLogin(ctx context.Context, userUID string, at time.Time) error
}

// Denylist описывает контракт денилиста отозванных refresh-токенов.
type Denylist interface {
	DenyRefreshToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRefreshTokenDenied(ctx context.Context, jti string) (bool, error)
}

// TokenPair — пара выданных токенов.
type TokenPair struct {
	Access  string
	Refresh string
}

// AuthService отвечает за регистрацию, вход и жизненный цикл токенов.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	denylist Denylist
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, denylist Denylist) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		denylist: denylist,
	}
}

// Register создает нового пользователя с хэшированием пароля и дефолтной ролью "user".
// Учётная запись помечается подтверждённой: почтовое подтверждение отключено.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword, preferredLanguage string) (*models.User, error) {
	const op = "auth.Register"

	if err := password.ValidateStrength(rawPassword); err != nil {
		return nil, err
	}
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if preferredLanguage != "en" && preferredLanguage != "sw" {
		preferredLanguage = "en"
	}
	user := models.User{
		Name:              name,
		Email:             email,
		PasswordHash:      hashed,
		Role:              models.RoleUser, // дефолтная роль при регистрации
		Verified:          true,
		PreferredLanguage: preferredLanguage,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.UID = uid
	return &user, nil
}

// Login проверяет пароль пользователя и выдает пару токенов.
// Неизвестный email и неверный пароль дают одинаковую ошибку.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*TokenPair, *models.User, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, nil, ErrNotVerified
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	// Отметка входа не критична для выдачи токенов.
	_ = s.users.UpdateLastLogin(ctx, user.UID, time.Now().UTC())

	return pair, user, nil
}

// Refresh проверяет refresh-токен и ротирует пару: старый jti попадает
// в денилист на остаток своего срока, выдаются новые токены.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	const op = "auth.Refresh"

	claims, err := s.jwtMaker.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	denied, err := s.denylist.IsRefreshTokenDenied(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if denied {
		return nil, ErrInvalidRefresh
	}

	user, err := s.users.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.denylist.DenyRefreshToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pair, nil
}

// Logout отзывает refresh-токен. Отзыв уже невалидного токена —
// успешный no-op: клиент в любом случае разлогинен.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	const op = "auth.Logout"

	claims, err := s.jwtMaker.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil
	}
	if err := s.denylist.DenyRefreshToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Me возвращает пользователя по UID из access-токена.
func (s *AuthService) Me(ctx context.Context, userUID string) (*models.User, error) {
	const op = "auth.Me"
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *AuthService) issuePair(user *models.User) (*TokenPair, error) {
	access, err := s.jwtMaker.GenerateAccessToken(user.UID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.jwtMaker.GenerateRefreshToken(user.UID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}
