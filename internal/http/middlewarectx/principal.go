// Package middlewarectx содержит HTTP middleware для определения принципала запроса.
//
// PrincipalMiddleware разбирает JWT из заголовка Authorization и кладёт
// принципала в контекст запроса. Отсутствующий или невалидный токен не
// является ошибкой: запрос продолжается от имени анонимного принципала,
// а решение о доступе принимают обработчики и RequireAuth.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/zeawatch/zeawatch-backend/internal/authz"
	"github.com/zeawatch/zeawatch-backend/internal/http/response"
	"github.com/zeawatch/zeawatch-backend/internal/lib/jwt"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// PrincipalKey — ключ для принципала в контексте.
const PrincipalKey Key = "principal"

// TokenParser описывает разбор access-токена.
type TokenParser interface {
	ParseAccessToken(token string) (*jwt.AccessClaims, error)
}

// PrincipalFromContext возвращает принципала запроса. Для запросов,
// не прошедших через PrincipalMiddleware, возвращает анонима.
func PrincipalFromContext(ctx context.Context) authz.Principal {
	p, ok := ctx.Value(PrincipalKey).(authz.Principal)
	if !ok {
		return authz.Anonymous()
	}
	return p
}

// PrincipalMiddleware возвращает middleware, определяющий принципала запроса
// по заголовку Authorization. Невалидный токен разжалуется до анонима,
// единственная деталь причины остаётся в серверном логе.
func PrincipalMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.PrincipalMiddleware"

			principal := authz.Anonymous()

			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
				claims, err := parser.ParseAccessToken(tokenStr)
				if err != nil {
					log.Debug("access token rejected",
						slog.String("op", op),
						slog.String("request_id", middleware.GetReqID(r.Context())),
					)
				} else {
					principal = authz.Authenticated(claims.Subject, claims.Email, claims.Role)
				}
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth возвращает middleware, отклоняющий анонимные запросы
// с HTTP статусом 401 Unauthorized.
func RequireAuth(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireAuth"

			if !PrincipalFromContext(r.Context()).IsAuthenticated() {
				log.Info("unauthenticated request rejected",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
