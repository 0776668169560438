package memory

import (
	"context"
	"time"

	"classpulse/internal/model"
)

func (s *Store) CreateAuditEntry(_ context.Context, e model.AuditEntry) (model.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextAuditID
	s.nextAuditID++
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.audits = append(s.audits, e)
	return e, nil
}

func (s *Store) ListRecentAuditEntries(_ context.Context, limit int) ([]model.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.AuditEntry
	for i := len(s.audits) - 1; i >= 0; i-- {
		e := s.audits[i]
		if u, ok := s.users[e.UserID]; ok {
			e.ActorName = u.Name
		}
		result = append(result, e)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}
