package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zeawatch/zeawatch-backend/internal/models"
)

// CreateAnalysis вставляет новую запись анализа. CreatedAt сохраняется
// как передан: для мигрированных записей это клиентское время. Гонка
// по уникальному отпечатку владельца возвращает ErrDuplicate.
func (s *Storage) CreateAnalysis(ctx context.Context, a models.Analysis) (string, error) {
	const op = "storage.CreateAnalysis"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO analyses (id, owner_uid, label, score, image_url, notes,
			      fingerprint, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		a.ID, a.OwnerUID, a.Label, a.Score, a.ImageURL, a.Notes,
		a.Fingerprint, a.CreatedAt).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetAnalysis возвращает запись анализа по её ID.
func (s *Storage) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	const op = "storage.GetAnalysis"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, owner_uid, label, score, image_url, notes, fingerprint, created_at
			  FROM analyses WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Analysis
	if err := row.Scan(&result.ID, &result.OwnerUID, &result.Label, &result.Score,
		&result.ImageURL, &result.Notes, &result.Fingerprint, &result.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListAnalysesByOwner возвращает записи владельца с пагинацией,
// новые сначала.
func (s *Storage) ListAnalysesByOwner(ctx context.Context, ownerUID string, limit, offset int) ([]*models.Analysis, error) {
	const op = "storage.ListAnalysesByOwner"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, owner_uid, label, score, image_url, notes, fingerprint, created_at
			  FROM analyses
			  WHERE owner_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, ownerUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Analysis
	for rows.Next() {
		var a models.Analysis
		if err = rows.Scan(&a.ID, &a.OwnerUID, &a.Label, &a.Score,
			&a.ImageURL, &a.Notes, &a.Fingerprint, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteAnalysis удаляет запись по ID и возвращает количество удалённых строк.
func (s *Storage) DeleteAnalysis(ctx context.Context, id string) (int, error) {
	const op = "storage.DeleteAnalysis"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM analyses WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListFingerprintsByOwner возвращает множество отпечатков записей владельца.
// Используется миграцией для схлопывания дубликатов до вставки.
func (s *Storage) ListFingerprintsByOwner(ctx context.Context, ownerUID string) (map[string]struct{}, error) {
	const op = "storage.ListFingerprintsByOwner"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT fingerprint FROM analyses WHERE owner_uid = $1`
	rows, err := s.DB.QueryContext(ctx, query, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make(map[string]struct{})
	for rows.Next() {
		var fp string
		if err = rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[fp] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
