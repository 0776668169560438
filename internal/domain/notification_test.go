package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidNotificationType(t *testing.T) {
	valid := []string{
		NotificationTypeInfo,
		NotificationTypeSuccess,
		NotificationTypeWarning,
		NotificationTypeError,
		NotificationTypeTask,
		NotificationTypeAnnouncement,
		NotificationTypeGrade,
		NotificationTypeAttendance,
		NotificationTypeSystem,
	}
	for _, typ := range valid {
		t.Run(typ, func(t *testing.T) {
			require.True(t, IsValidNotificationType(typ))
		})
	}

	t.Run("invalid", func(t *testing.T) {
		require.False(t, IsValidNotificationType("spam"))
		require.False(t, IsValidNotificationType(""))
		require.False(t, IsValidNotificationType("INFO"))
	})
}

func TestIsValidPriority(t *testing.T) {
	for _, p := range []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		t.Run(p, func(t *testing.T) {
			require.True(t, IsValidPriority(p))
		})
	}

	t.Run("invalid", func(t *testing.T) {
		require.False(t, IsValidPriority("critical"))
		require.False(t, IsValidPriority(""))
	})
}

func TestCanSendNotifications(t *testing.T) {
	require.True(t, CanSendNotifications(RoleTeacher))
	require.True(t, CanSendNotifications(RoleAdmin))
	require.False(t, CanSendNotifications(RoleStudent))
	require.False(t, CanSendNotifications(RoleParent))
	require.False(t, CanSendNotifications(""))
}

func TestRoomNames(t *testing.T) {
	require.Equal(t, "user:u-1", UserRoom("u-1"))
	require.Equal(t, "class:c-7", ClassRoom("c-7"))
	require.Equal(t, "activity", ActivityRoom)
}
