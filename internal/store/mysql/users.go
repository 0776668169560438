package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"classpulse/internal/domain"
	"classpulse/internal/model"
)

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, role, status, last_seen FROM users WHERE id = ?", id,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, domain.ErrNotFound
	}
	if err != nil {
		s.log.Error("sql get user failed", zap.String("id", id), zap.Error(err))
		return model.User{}, err
	}
	return u, nil
}

func (s *Store) ListUsersByRoles(ctx context.Context, roles []string) ([]model.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	query := "SELECT id, name, email, role, status, last_seen FROM users WHERE role IN (" +
		placeholders(len(roles)) + ")"
	args := make([]any, len(roles))
	for i, r := range roles {
		args[i] = r
	}
	return s.queryUsers(ctx, query, args...)
}

func (s *Store) ListClassRoster(ctx context.Context, classID string) ([]model.User, error) {
	return s.queryUsers(ctx,
		`SELECT u.id, u.name, u.email, u.role, u.status, u.last_seen
		 FROM users u
		 JOIN enrollments e ON e.user_id = u.id
		 WHERE e.class_id = ? AND u.role = ?`,
		classID, domain.RoleStudent,
	)
}

func (s *Store) ListGuardians(ctx context.Context, studentIDs []string) ([]model.User, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	query := `SELECT DISTINCT u.id, u.name, u.email, u.role, u.status, u.last_seen
		 FROM users u
		 JOIN guardian_links g ON g.guardian_id = u.id
		 WHERE g.student_id IN (` + placeholders(len(studentIDs)) + ")"
	args := make([]any, len(studentIDs))
	for i, id := range studentIDs {
		args[i] = id
	}
	return s.queryUsers(ctx, query, args...)
}

func (s *Store) SetPresence(ctx context.Context, userID, status string, lastSeen time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET status = ?, last_seen = ? WHERE id = ?",
		status, lastSeen, userID,
	)
	if err != nil {
		s.log.Error("sql set presence failed", zap.String("user_id", userID), zap.Error(err))
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

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.log.Error("sql list users failed", zap.Error(err))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u        model.User
		status   sql.NullString
		lastSeen sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &status, &lastSeen); err != nil {
		return model.User{}, err
	}
	u.Status = status.String
	if u.Status == "" {
		u.Status = domain.PresenceOffline
	}
	u.LastSeen = lastSeen.Time
	return u, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
