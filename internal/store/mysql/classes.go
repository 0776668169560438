package mysql

import (
	"context"
	"time"

	"go.uber.org/zap"

	"classpulse/internal/model"
)

func (s *Store) CreateComment(ctx context.Context, c model.Comment) (model.Comment, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO comments (class_id, user_id, text, created_at) VALUES (?, ?, ?, ?)",
		c.ClassID, c.UserID, c.Text, c.CreatedAt,
	)
	if err != nil {
		s.log.Error("sql create comment failed", zap.String("class_id", c.ClassID), zap.Error(err))
		return model.Comment{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Comment{}, err
	}
	c.ID = id
	if c.AuthorName == "" {
		if u, err := s.GetUser(ctx, c.UserID); err == nil {
			c.AuthorName = u.Name
		}
	}
	return c, nil
}

func (s *Store) ListComments(ctx context.Context, classID string, limit int) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.class_id, c.user_id, COALESCE(u.name, ''), c.text, c.created_at
		 FROM comments c
		 LEFT JOIN users u ON u.id = c.user_id
		 WHERE c.class_id = ?
		 ORDER BY c.created_at DESC, c.id DESC
		 LIMIT ?`,
		classID, limit,
	)
	if err != nil {
		s.log.Error("sql list comments failed", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var newestFirst []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.ClassID, &c.UserID, &c.AuthorName, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		newestFirst = append(newestFirst, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Clients render oldest first.
	result := make([]model.Comment, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		result = append(result, newestFirst[i])
	}
	return result, nil
}

func (s *Store) CreateAnnouncement(ctx context.Context, a model.Announcement) (model.Announcement, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO announcements (class_id, title, body, created_at) VALUES (?, ?, ?, ?)",
		a.ClassID, a.Title, a.Body, a.CreatedAt,
	)
	if err != nil {
		s.log.Error("sql create announcement failed", zap.String("class_id", a.ClassID), zap.Error(err))
		return model.Announcement{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Announcement{}, err
	}
	a.ID = id
	return a, nil
}

func (s *Store) ListAnnouncements(ctx context.Context, classID string, limit int) ([]model.Announcement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, class_id, title, body, created_at
		 FROM announcements
		 WHERE class_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		classID, limit,
	)
	if err != nil {
		s.log.Error("sql list announcements failed", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var newestFirst []model.Announcement
	for rows.Next() {
		var a model.Announcement
		if err := rows.Scan(&a.ID, &a.ClassID, &a.Title, &a.Body, &a.CreatedAt); err != nil {
			return nil, err
		}
		newestFirst = append(newestFirst, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]model.Announcement, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		result = append(result, newestFirst[i])
	}
	return result, nil
}

func (s *Store) ListTasksDueBefore(ctx context.Context, cutoff time.Time) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, class_id, title, due_at FROM tasks WHERE due_at > ? AND due_at < ?",
		time.Now().UTC(), cutoff,
	)
	if err != nil {
		s.log.Error("sql list due tasks failed", zap.Error(err))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.ClassID, &t.Title, &t.DueAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
