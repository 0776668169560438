package memory

import (
	"context"
	"time"

	"classpulse/internal/model"
)

func (s *Store) CreateComment(_ context.Context, c model.Comment) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextCommentID
	s.nextCommentID++
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.AuthorName == "" {
		if u, ok := s.users[c.UserID]; ok {
			c.AuthorName = u.Name
		}
	}
	s.comments = append(s.comments, c)
	return c, nil
}

func (s *Store) ListComments(_ context.Context, classID string, limit int) ([]model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Comment
	for _, c := range s.comments {
		if c.ClassID != classID {
			continue
		}
		result = append(result, c)
	}
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (s *Store) CreateAnnouncement(_ context.Context, a model.Announcement) (model.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextAnnouncementID
	s.nextAnnouncementID++
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.announcements = append(s.announcements, a)
	return a, nil
}

func (s *Store) ListAnnouncements(_ context.Context, classID string, limit int) ([]model.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Announcement
	for _, a := range s.announcements {
		if a.ClassID != classID {
			continue
		}
		result = append(result, a)
	}
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (s *Store) ListTasksDueBefore(_ context.Context, cutoff time.Time) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var result []model.Task
	for _, t := range s.tasks {
		if t.DueAt.After(now) && t.DueAt.Before(cutoff) {
			result = append(result, t)
		}
	}
	return result, nil
}
