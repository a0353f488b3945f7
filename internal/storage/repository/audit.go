package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// CreateAuditLog добавляет запись в журнал аудита. UserUID может быть
// пустым для событий без установленного пользователя.
func (s *Storage) CreateAuditLog(ctx context.Context, userUID, action string, details map[string]any, ip string) error {
	const op = "storage.CreateAuditLog"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var detailsJSON []byte
	if details != nil {
		var err error
		detailsJSON, err = json.Marshal(details)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	var uid sql.NullString
	if userUID != "" {
		uid = sql.NullString{String: userUID, Valid: true}
	}

	query := `INSERT INTO audit_log (user_uid, action, details, ip_address)
			  VALUES ($1, $2, $3, $4)`
	_, err := s.DB.ExecContext(ctx, query, uid, action, detailsJSON, ip)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
