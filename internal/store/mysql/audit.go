package mysql

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"classpulse/internal/model"
)

func (s *Store) CreateAuditEntry(ctx context.Context, e model.AuditEntry) (model.AuditEntry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_entries
			(user_id, action, resource_type, resource_id, details, status, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Action, e.ResourceType, e.ResourceID, e.Details, e.Status, e.ErrorMessage, e.CreatedAt,
	)
	if err != nil {
		s.log.Error("sql create audit entry failed",
			zap.String("user_id", e.UserID),
			zap.String("action", e.Action),
			zap.Error(err),
		)
		return model.AuditEntry{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		s.log.Error("sql last insert id failed", zap.Error(err))
		return model.AuditEntry{}, err
	}
	e.ID = id
	return e, nil
}

func (s *Store) ListRecentAuditEntries(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.user_id, COALESCE(u.name, ''), a.action, a.resource_type,
			a.resource_id, a.details, a.status, a.error_message, a.created_at
		 FROM audit_entries a
		 LEFT JOIN users u ON u.id = a.user_id
		 ORDER BY a.created_at DESC, a.id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		s.log.Error("sql list audit entries failed", zap.Int("limit", limit), zap.Error(err))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []model.AuditEntry
	for rows.Next() {
		var (
			e          model.AuditEntry
			resourceID sql.NullString
			details    sql.NullString
			errMsg     sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.ActorName, &e.Action, &e.ResourceType,
			&resourceID, &details, &e.Status, &errMsg, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.ResourceID = resourceID.String
		e.Details = details.String
		e.ErrorMessage = errMsg.String
		result = append(result, e)
	}
	return result, rows.Err()
}
