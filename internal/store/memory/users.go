package memory

import (
	"context"
	"time"

	"classpulse/internal/domain"
	"classpulse/internal/model"
)

func (s *Store) GetUser(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *Store) ListUsersByRoles(_ context.Context, roles []string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}
	var result []model.User
	for _, u := range s.users {
		if _, ok := roleSet[u.Role]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}

func (s *Store) ListClassRoster(_ context.Context, classID string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.User
	for _, u := range s.users {
		if u.Role != domain.RoleStudent {
			continue
		}
		for _, c := range u.ClassIDs {
			if c == classID {
				result = append(result, u)
				break
			}
		}
	}
	return result, nil
}

func (s *Store) ListGuardians(_ context.Context, studentIDs []string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	var result []model.User
	for _, sid := range studentIDs {
		student, ok := s.users[sid]
		if !ok {
			continue
		}
		for _, gid := range student.GuardianIDs {
			if _, dup := seen[gid]; dup {
				continue
			}
			if guardian, ok := s.users[gid]; ok {
				seen[gid] = struct{}{}
				result = append(result, guardian)
			}
		}
	}
	return result, nil
}

func (s *Store) SetPresence(_ context.Context, userID, status string, lastSeen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Status = status
	u.LastSeen = lastSeen
	s.users[userID] = u
	return nil
}
