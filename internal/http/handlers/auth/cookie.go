// Package auth содержит общие для обработчиков аутентификации
// функции работы с refresh-cookie.
//
// Refresh-токен передаётся в HttpOnly cookie, недоступной скриптам
// страницы. Для клиентов без cookie (мобильное приложение) тот же
// токен дублируется в теле ответа и принимается из тела запроса.
package auth

import (
	"net/http"
	"time"
)

// RefreshCookieName — имя cookie с refresh-токеном.
const RefreshCookieName = "refresh_token"

const cookiePath = "/api/v1/auth"

// SetRefreshCookie выставляет refresh-токен в HttpOnly cookie.
func SetRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     cookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearRefreshCookie стирает refresh-cookie у клиента.
func ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     cookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// RefreshTokenFromRequest возвращает refresh-токен из тела запроса,
// а при его отсутствии — из cookie. Пустая строка значит, что токен
// не передан ни одним способом.
func RefreshTokenFromRequest(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	if c, err := r.Cookie(RefreshCookieName); err == nil {
		return c.Value
	}
	return ""
}
