// Package jwt реализует генерацию и парсинг JWT токенов доступа и обновления.
//
// Maker определяет интерфейс для создания и проверки пары токенов:
// короткоживущего access-токена с данными пользователя и долгоживущего
// refresh-токена с уникальным идентификатором (jti) для отзыва.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken возвращается для любого невалидного токена: искажённой
// структуры, неверной подписи или истёкшего срока. Причины намеренно
// неразличимы для вызывающего кода.
var ErrInvalidToken = errors.New("invalid token")

// Типы токенов, хранимые в claim "type". Access-токен никогда
// не принимается там, где ожидается refresh, и наоборот.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// AccessClaims описывает данные access-токена. Subject — UID пользователя.
type AccessClaims struct {
	Email                string `json:"email"`
	Role                 string `json:"role"`
	TokenType            string `json:"type"`
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// RefreshClaims описывает данные refresh-токена. Subject — UID пользователя,
// ID (jti) используется денилистом при отзыве.
type RefreshClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	GenerateAccessToken(userUID, email, role string) (string, error)
	GenerateRefreshToken(userUID string) (token, jti string, err error)
	ParseAccessToken(tokenStr string) (*AccessClaims, error)
	ParseRefreshToken(tokenStr string) (*RefreshClaims, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токенов (TTL).
type MakerImpl struct {
	secretKey  string        // Секретный ключ для подписи токенов.
	accessTTL  time.Duration // Время жизни access-токена.
	refreshTTL time.Duration // Время жизни refresh-токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, accessTTL, refreshTTL time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}
