package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"classpulse/internal/domain"
	"classpulse/internal/model"
)

const notificationColumns = "id, user_id, title, message, type, priority, category, is_read, read_at, action_url, action_label, metadata, expires_at, created_at"

func (s *Store) CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	var metadata []byte
	if len(n.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(n.Metadata)
		if err != nil {
			return model.Notification{}, err
		}
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications
			(user_id, title, message, type, priority, category, is_read, action_url, action_label, metadata, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)`,
		n.UserID, n.Title, n.Message, n.Type, n.Priority, n.Category,
		n.ActionURL, n.ActionLabel, metadata, n.ExpiresAt, n.CreatedAt,
	)
	if err != nil {
		s.log.Error("sql create notification failed",
			zap.String("user_id", n.UserID),
			zap.String("type", n.Type),
			zap.Error(err),
		)
		return model.Notification{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		s.log.Error("sql last insert id failed", zap.Error(err))
		return model.Notification{}, err
	}
	n.ID = id
	return n, nil
}

func (s *Store) GetNotification(ctx context.Context, id int64, userID string) (model.Notification, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id = ? AND user_id = ?",
		id, userID,
	)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Notification{}, domain.ErrNotFound
	}
	if err != nil {
		s.log.Error("sql get notification failed", zap.Int64("id", id), zap.Error(err))
		return model.Notification{}, err
	}
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, f model.NotificationFilter) ([]model.Notification, error) {
	query := "SELECT " + notificationColumns + " FROM notifications WHERE user_id = ?"
	args := []any{userID}
	if f.Read != nil {
		query += " AND is_read = ?"
		args = append(args, *f.Read)
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, f.Type)
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.Priority != "" {
		query += " AND priority = ?"
		args = append(args, f.Priority)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.log.Error("sql list notifications failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, id int64, userID string, at time.Time) (model.Notification, error) {
	n, err := s.GetNotification(ctx, id, userID)
	if err != nil {
		return model.Notification{}, err
	}
	if n.Read {
		// Already read; read_at stays at its original value.
		return n, nil
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1, read_at = ? WHERE id = ? AND user_id = ?",
		at, id, userID,
	); err != nil {
		s.log.Error("sql mark notification read failed", zap.Int64("id", id), zap.Error(err))
		return model.Notification{}, err
	}
	n.Read = true
	readAt := at
	n.ReadAt = &readAt
	return n, nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1, read_at = ? WHERE user_id = ? AND is_read = 0",
		at, userID,
	)
	if err != nil {
		s.log.Error("sql mark all read failed", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return result.RowsAffected()
}

func (s *Store) DeleteNotification(ctx context.Context, id int64, userID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE id = ? AND user_id = ?", id, userID,
	)
	if err != nil {
		s.log.Error("sql delete notification failed", zap.Int64("id", id), zap.Error(err))
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteReadNotifications(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE user_id = ? AND is_read = 1", userID,
	)
	if err != nil {
		s.log.Error("sql delete read notifications failed", zap.String("user_id", userID), zap.Error(err))
		return 0, err
	}
	return result.RowsAffected()
}

func (s *Store) DeleteExpiredNotifications(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE expires_at IS NOT NULL AND expires_at <= ?", now,
	)
	if err != nil {
		s.log.Error("sql delete expired notifications failed", zap.Error(err))
		return 0, err
	}
	return result.RowsAffected()
}

func (s *Store) NotificationStats(ctx context.Context, userID string) (model.NotificationStats, error) {
	stats := model.NotificationStats{
		ByType:     make(map[string]int64),
		ByPriority: make(map[string]int64),
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(is_read = 0), 0) FROM notifications WHERE user_id = ?",
		userID,
	)
	if err := row.Scan(&stats.Total, &stats.Unread); err != nil {
		s.log.Error("sql notification stats failed", zap.String("user_id", userID), zap.Error(err))
		return model.NotificationStats{}, err
	}

	if err := s.countGroup(ctx, userID, "type", stats.ByType); err != nil {
		return model.NotificationStats{}, err
	}
	if err := s.countGroup(ctx, userID, "priority", stats.ByPriority); err != nil {
		return model.NotificationStats{}, err
	}
	return stats, nil
}

func (s *Store) countGroup(ctx context.Context, userID, column string, into map[string]int64) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM notifications WHERE user_id = ? GROUP BY "+column,
		userID,
	)
	if err != nil {
		s.log.Error("sql notification group count failed", zap.String("column", column), zap.Error(err))
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

func (s *Store) HasSimilarNotification(ctx context.Context, userID, category, title string) (bool, error) {
	var exists bool
	row := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM notifications WHERE user_id = ? AND category = ? AND title = ?)",
		userID, category, title,
	)
	if err := row.Scan(&exists); err != nil {
		s.log.Error("sql has similar notification failed", zap.String("user_id", userID), zap.Error(err))
		return false, err
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (model.Notification, error) {
	var (
		n         model.Notification
		category  sql.NullString
		readAt    sql.NullTime
		actionURL sql.NullString
		actionLbl sql.NullString
		metadata  []byte
		expiresAt sql.NullTime
	)
	if err := row.Scan(
		&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.Priority,
		&category, &n.Read, &readAt, &actionURL, &actionLbl, &metadata,
		&expiresAt, &n.CreatedAt,
	); err != nil {
		return model.Notification{}, err
	}
	n.Category = category.String
	n.ActionURL = actionURL.String
	n.ActionLabel = actionLbl.String
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		n.ExpiresAt = &t
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return model.Notification{}, err
		}
	}
	return n, nil
}
