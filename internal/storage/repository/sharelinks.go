package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zeawatch/zeawatch-backend/internal/models"
)

// CreateShareLink сохраняет новую ссылку общего доступа.
// Коллизия токена возвращает ErrDuplicate, вызывающий код
// перегенерирует токен.
func (s *Storage) CreateShareLink(ctx context.Context, link models.ShareLink) error {
	const op = "storage.CreateShareLink"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO share_links (token, analysis_id, created_by, expires_at)
			  VALUES ($1, $2, $3, $4)`
	_, err := s.DB.ExecContext(ctx, query,
		link.Token, link.AnalysisID, link.CreatedBy, link.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetShareLink возвращает ссылку по токену. Срок действия здесь
// не проверяется: это делает сервис при каждом разрешении.
func (s *Storage) GetShareLink(ctx context.Context, token string) (*models.ShareLink, error) {
	const op = "storage.GetShareLink"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT token, analysis_id, created_by, expires_at, created_at
			  FROM share_links WHERE token = $1`
	row := s.DB.QueryRowContext(ctx, query, token)

	var result models.ShareLink
	if err := row.Scan(&result.Token, &result.AnalysisID, &result.CreatedBy,
		&result.ExpiresAt, &result.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// RevokeShareLink устанавливает expires_at в now, если ссылка ещё
// действует. Отзыв уже истёкшей ссылки не меняет строку (идемпотентность).
func (s *Storage) RevokeShareLink(ctx context.Context, token string, now time.Time) error {
	const op = "storage.RevokeShareLink"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE share_links
			  SET expires_at = $2
			  WHERE token = $1 AND expires_at > $2`
	_, err := s.DB.ExecContext(ctx, query, token, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
