package memory

import (
	"sync"

	"go.uber.org/zap"

	"classpulse/internal/model"
)

// Store is the default backend when no MySQL DSN is configured. Everything
// lives behind one mutex; fine for a dev instance, not meant for load.
type Store struct {
	mu sync.Mutex

	nextNotificationID int64
	notifications      []model.Notification

	nextAuditID int64
	audits      []model.AuditEntry

	users map[string]model.User

	nextCommentID      int64
	comments           []model.Comment
	nextAnnouncementID int64
	announcements      []model.Announcement
	nextTaskID         int64
	tasks              []model.Task

	log *zap.Logger
}

func New(logger *zap.Logger) *Store {
	return &Store{
		nextNotificationID: 1,
		nextAuditID:        1,
		nextCommentID:      1,
		nextAnnouncementID: 1,
		nextTaskID:         1,
		users:              make(map[string]model.User),
		log:                logger,
	}
}

// PutUser upserts a user record. User lifecycle is owned by the CRUD layer;
// this exists for seeding and tests.
func (s *Store) PutUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutTask registers a deadline for the reminder sweep to pick up.
func (s *Store) PutTask(t model.Task) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.nextTaskID
		s.nextTaskID++
	}
	s.tasks = append(s.tasks, t)
	return t
}
