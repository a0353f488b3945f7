// Package zeawatch собирает приложение: подключения, сервисы и маршруты.
package zeawatch

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	analysiscreate "github.com/zeawatch/zeawatch-backend/internal/http/handlers/analysis/create"
	analysislist "github.com/zeawatch/zeawatch-backend/internal/http/handlers/analysis/list"
	analysisread "github.com/zeawatch/zeawatch-backend/internal/http/handlers/analysis/read"
	analysisremove "github.com/zeawatch/zeawatch-backend/internal/http/handlers/analysis/remove"
	"github.com/zeawatch/zeawatch-backend/internal/http/handlers/auth/login"
	"github.com/zeawatch/zeawatch-backend/internal/http/handlers/auth/logout"
	"github.com/zeawatch/zeawatch-backend/internal/http/handlers/auth/me"
	"github.com/zeawatch/zeawatch-backend/internal/http/handlers/auth/refresh"
	"github.com/zeawatch/zeawatch-backend/internal/http/handlers/auth/register"
	"github.com/zeawatch/zeawatch-backend/internal/http/handlers/health"
	"github.com/zeawatch/zeawatch-backend/internal/http/handlers/migrate"
	sharecreate "github.com/zeawatch/zeawatch-backend/internal/http/handlers/share/create"
	shareresolve "github.com/zeawatch/zeawatch-backend/internal/http/handlers/share/resolve"
	sharerevoke "github.com/zeawatch/zeawatch-backend/internal/http/handlers/share/revoke"
	"github.com/zeawatch/zeawatch-backend/internal/http/middlewarectx"

	"github.com/zeawatch/zeawatch-backend/internal/config"
	"github.com/zeawatch/zeawatch-backend/internal/lib/jwt"
	analysisservice "github.com/zeawatch/zeawatch-backend/internal/services/analysis"
	auditservice "github.com/zeawatch/zeawatch-backend/internal/services/audit"
	authservice "github.com/zeawatch/zeawatch-backend/internal/services/auth"
	migrationservice "github.com/zeawatch/zeawatch-backend/internal/services/migration"
	shareservice "github.com/zeawatch/zeawatch-backend/internal/services/share"
	"github.com/zeawatch/zeawatch-backend/internal/storage/repository"
)

// Services объединяет бизнес-логику приложения для регистрации маршрутов.
type Services struct {
	Auth      *authservice.AuthService
	Analysis  *analysisservice.Service
	Share     *shareservice.Service
	Migration *migrationservice.Service
	Audit     *auditservice.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, db *repository.Storage, jwtMaker jwt.Maker, svc Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)
	// Принципал определяется для каждого запроса, даже анонимного.
	r.Use(middlewarectx.PrincipalMiddleware(jwtMaker, logger))

	authLimiter := rate.NewLimiter(rate.Limit(5), 10)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Открытые конечные точки с лимитом запросов
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, authLimiter))
			r.Post("/auth/register", register.New(logger, svc.Auth, svc.Audit).ServeHTTP)
			r.Post("/auth/login", login.New(logger, svc.Auth, svc.Audit, cfg.RefreshTTL).ServeHTTP)
			r.Post("/auth/refresh", refresh.New(logger, svc.Auth, cfg.RefreshTTL).ServeHTTP)
			r.Post("/auth/logout", logout.New(logger, svc.Auth).ServeHTTP)
		})

		// Публичное разрешение ссылки общего доступа
		r.Get("/shares/{token}", shareresolve.New(logger, svc.Share).ServeHTTP)

		// Группа, требующая аутентификации
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireAuth(logger))
			r.Get("/auth/me", me.New(logger, svc.Auth).ServeHTTP)
			r.Post("/analyses", analysiscreate.New(logger, svc.Analysis).ServeHTTP)
			r.Get("/analyses", analysislist.New(logger, svc.Analysis).ServeHTTP)
			r.Get("/analyses/{id}", analysisread.New(logger, svc.Analysis).ServeHTTP)
			r.Delete("/analyses/{id}", analysisremove.New(logger, svc.Analysis).ServeHTTP)
			r.Post("/shares", sharecreate.New(logger, svc.Share, svc.Audit, cfg.ShareLinks.BaseURL).ServeHTTP)
			r.Delete("/shares/{token}", sharerevoke.New(logger, svc.Share, svc.Audit).ServeHTTP)
			r.Post("/migrate", migrate.New(logger, svc.Migration, svc.Audit).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
