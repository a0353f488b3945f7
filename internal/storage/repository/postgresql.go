// Package repository реализует хранилище данных на основе PostgreSQL
// для управления пользователями, записями анализа и ссылками общего
// доступа. Предоставляет методы создания, чтения, удаления и выборки
// отпечатков, а также журнал аудита.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"database/sql"
)

// Сентинельные ошибки хранилища. Остальные ошибки драйвера считаются
// потенциально временными и могут повторяться вызывающим кодом.
var (
	// ErrNotFound — запрошенная строка отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate — нарушение уникального ограничения.
	ErrDuplicate = errors.New("duplicate")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с пользователями, записями и ссылками.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'analyses'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table analyses missing or query error: %w", err)
	}
	return nil
}

// isUniqueViolation распознаёт нарушение уникального ограничения (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
