package memory

import (
	"context"
	"time"

	"classpulse/internal/domain"
	"classpulse/internal/model"
)

func (s *Store) CreateNotification(_ context.Context, n model.Notification) (model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.nextNotificationID
	s.nextNotificationID++
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.notifications = append(s.notifications, n)
	return n, nil
}

func (s *Store) GetNotification(_ context.Context, id int64, userID string) (model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == id && n.UserID == userID {
			return n, nil
		}
	}
	return model.Notification{}, domain.ErrNotFound
}

func (s *Store) ListNotifications(_ context.Context, userID string, f model.NotificationFilter) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.Notification
	skipped := 0
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if n.UserID != userID || !matches(n, f) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		result = append(result, n)
		if f.Limit > 0 && len(result) >= f.Limit {
			break
		}
	}
	return result, nil
}

func matches(n model.Notification, f model.NotificationFilter) bool {
	if f.Read != nil && n.Read != *f.Read {
		return false
	}
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if f.Category != "" && n.Category != f.Category {
		return false
	}
	if f.Priority != "" && n.Priority != f.Priority {
		return false
	}
	return true
}

func (s *Store) MarkNotificationRead(_ context.Context, id int64, userID string, at time.Time) (model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		n := &s.notifications[i]
		if n.ID != id || n.UserID != userID {
			continue
		}
		// readAt is monotonic: a second read keeps the first timestamp.
		if !n.Read {
			n.Read = true
			readAt := at
			n.ReadAt = &readAt
		}
		return *n, nil
	}
	return model.Notification{}, domain.ErrNotFound
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for i := range s.notifications {
		n := &s.notifications[i]
		if n.UserID != userID || n.Read {
			continue
		}
		n.Read = true
		readAt := at
		n.ReadAt = &readAt
		count++
	}
	return count, nil
}

func (s *Store) DeleteNotification(_ context.Context, id int64, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == id && n.UserID == userID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) DeleteReadNotifications(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notifications[:0]
	var count int64
	for _, n := range s.notifications {
		if n.UserID == userID && n.Read {
			count++
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	return count, nil
}

func (s *Store) DeleteExpiredNotifications(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notifications[:0]
	var count int64
	for _, n := range s.notifications {
		if n.ExpiresAt != nil && !n.ExpiresAt.After(now) {
			count++
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	return count, nil
}

func (s *Store) NotificationStats(_ context.Context, userID string) (model.NotificationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := model.NotificationStats{
		ByType:     make(map[string]int64),
		ByPriority: make(map[string]int64),
	}
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		stats.Total++
		if !n.Read {
			stats.Unread++
		}
		stats.ByType[n.Type]++
		stats.ByPriority[n.Priority]++
	}
	return stats, nil
}

func (s *Store) HasSimilarNotification(_ context.Context, userID, category, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.UserID == userID && n.Category == category && n.Title == title {
			return true, nil
		}
	}
	return false, nil
}
