package zeawatch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/zeawatch/zeawatch-backend/internal/cache"
	"github.com/zeawatch/zeawatch-backend/internal/config"
	"github.com/zeawatch/zeawatch-backend/internal/events"
	"github.com/zeawatch/zeawatch-backend/internal/lib/jwt"
	"github.com/zeawatch/zeawatch-backend/internal/migrations"
	analysisservice "github.com/zeawatch/zeawatch-backend/internal/services/analysis"
	auditservice "github.com/zeawatch/zeawatch-backend/internal/services/audit"
	authservice "github.com/zeawatch/zeawatch-backend/internal/services/auth"
	migrationservice "github.com/zeawatch/zeawatch-backend/internal/services/migration"
	shareservice "github.com/zeawatch/zeawatch-backend/internal/services/share"
	"github.com/zeawatch/zeawatch-backend/internal/storage/repository"
)

// App — собранное приложение с HTTP-сервером и внешними подключениями.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	cache    *cache.Cache
	amqpConn *amqp.Connection
}

// New собирает приложение: хранилище, миграции, кеш, события,
// сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	var amqpConn *amqp.Connection
	var publisher auditservice.Publisher
	if cfg.RabbitMQ.AuditEnabled {
		amqpConn, err = events.Connect(cfg.AddressAMQP, cfg.ConnRetries, cfg.ConnDelay)
		if err != nil {
			return nil, err
		}
		pub, err := events.NewPublisher(amqpConn)
		if err != nil {
			return nil, err
		}
		publisher = pub
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.AccessTTL, cfg.RefreshTTL)

	svc := Services{
		Auth:      authservice.NewAuthService(db, jwtMaker, cacheRedis),
		Analysis:  analysisservice.New(db),
		Share:     shareservice.New(db, db, cfg.ShareLinks.DefaultTTL),
		Migration: migrationservice.New(db),
		Audit:     auditservice.New(db, publisher, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, db, jwtMaker, svc)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		cache:    cacheRedis,
		amqpConn: amqpConn,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста или
// ошибки сервера. При отмене выполняется корректное завершение.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.amqpConn != nil {
			_ = a.amqpConn.Close()
		}
		_ = a.db.DB.Close()
		return err
	}
}
