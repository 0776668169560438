package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classpulse/internal/config"
	"classpulse/internal/domain"
	"classpulse/internal/model"
)

type auditRepoMock struct {
	mock.Mock
}

func (m *auditRepoMock) CreateAuditEntry(ctx context.Context, e model.AuditEntry) (model.AuditEntry, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(model.AuditEntry), args.Error(1)
}

func (m *auditRepoMock) ListRecentAuditEntries(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.AuditEntry), args.Error(1)
}

type feedSpy struct {
	mu    sync.Mutex
	calls []struct {
		room  string
		event string
		data  any
	}
}

func (f *feedSpy) Broadcast(room, event string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, struct {
		room  string
		event string
		data  any
	}{room, event, data})
}

func (f *feedSpy) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testConfig() *config.Config {
	return &config.Config{ActivityFeedSize: 5}
}

func TestRecorderRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and broadcasts feed", func(t *testing.T) {
		repo := &auditRepoMock{}
		entry := model.AuditEntry{UserID: "u-1", Action: domain.ActionCreateNotification}
		created := entry
		created.ID = 7
		feed := []model.AuditEntry{created}

		repo.On("CreateAuditEntry", mock.Anything, mock.Anything).Return(created, nil).Once()
		repo.On("ListRecentAuditEntries", mock.Anything, 5).Return(feed, nil).Once()

		bus := &feedSpy{}
		recorder := NewRecorder(testConfig(), repo, bus, zap.NewNop())

		got := recorder.Record(ctx, entry)
		require.Equal(t, int64(7), got.ID)
		repo.AssertExpectations(t)

		require.Equal(t, 1, bus.count())
		require.Equal(t, domain.ActivityRoom, bus.calls[0].room)
		require.Equal(t, domain.EventActivityFeed, bus.calls[0].event)
		require.Equal(t, feed, bus.calls[0].data)
	})

	t.Run("defaults status and timestamp", func(t *testing.T) {
		repo := &auditRepoMock{}
		var captured model.AuditEntry
		repo.On("CreateAuditEntry", mock.Anything, mock.MatchedBy(func(e model.AuditEntry) bool {
			captured = e
			return true
		})).Return(model.AuditEntry{ID: 1}, nil).Once()
		repo.On("ListRecentAuditEntries", mock.Anything, 5).Return([]model.AuditEntry{}, nil).Once()

		recorder := NewRecorder(testConfig(), repo, &feedSpy{}, zap.NewNop())
		recorder.Record(ctx, model.AuditEntry{UserID: "u-1", Action: domain.ActionPostComment})

		require.Equal(t, domain.AuditStatusSuccess, captured.Status)
		require.False(t, captured.CreatedAt.IsZero())
	})

	t.Run("persist failure is swallowed", func(t *testing.T) {
		repo := &auditRepoMock{}
		repo.On("CreateAuditEntry", mock.Anything, mock.Anything).
			Return(model.AuditEntry{}, errors.New("db down")).Once()

		bus := &feedSpy{}
		recorder := NewRecorder(testConfig(), repo, bus, zap.NewNop())

		got := recorder.Record(ctx, model.AuditEntry{UserID: "u-1", Action: domain.ActionPostComment})
		require.Equal(t, "u-1", got.UserID)
		require.Zero(t, got.ID)
		require.Zero(t, bus.count())
		repo.AssertNotCalled(t, "ListRecentAuditEntries", mock.Anything, mock.Anything)
	})

	t.Run("feed refresh failure skips broadcast", func(t *testing.T) {
		repo := &auditRepoMock{}
		repo.On("CreateAuditEntry", mock.Anything, mock.Anything).
			Return(model.AuditEntry{ID: 3}, nil).Once()
		repo.On("ListRecentAuditEntries", mock.Anything, 5).
			Return([]model.AuditEntry(nil), errors.New("list failed")).Once()

		bus := &feedSpy{}
		recorder := NewRecorder(testConfig(), repo, bus, zap.NewNop())

		got := recorder.Record(ctx, model.AuditEntry{UserID: "u-1", Action: domain.ActionPostComment})
		require.Equal(t, int64(3), got.ID)
		require.Zero(t, bus.count())
	})
}

func TestRecorderFeed(t *testing.T) {
	repo := &auditRepoMock{}
	expected := []model.AuditEntry{{ID: 1}, {ID: 2}}
	repo.On("ListRecentAuditEntries", mock.Anything, 5).Return(expected, nil).Once()

	recorder := NewRecorder(testConfig(), repo, &feedSpy{}, zap.NewNop())
	got, err := recorder.Feed(context.Background())
	require.NoError(t, err)
	require.Equal(t, expected, got)
}
