package domain

// Rooms are logical multicast groups over live connections. They are never
// persisted; the table is rebuilt as clients reconnect and rejoin.

const ActivityRoom = "activity"

func UserRoom(userID string) string {
	return "user:" + userID
}

func ClassRoom(classID string) string {
	return "class:" + classID
}

// Server -> client event names.
const (
	EventNotificationNew    = "notification:new"
	EventNotificationUpdate = "notification:update"
	EventUserStatusUpdate   = "user_status_update"
	EventCommentUpdate      = "comment_update"
	EventAnnouncementUpdate = "announcement_update"
	EventActivityFeed       = "activity_feed_update"
	EventDashboardStats     = "dashboard_stats_updated"
	EventError              = "error"
)

// Client -> server event names.
const (
	ClientEventJoinUser         = "join_user"
	ClientEventJoinClass        = "join_class"
	ClientEventJoinActivity     = "join_activity"
	ClientEventNewComment       = "new_comment"
	ClientEventSendNotification = "send_notification"
	ClientEventSetAway          = "set_away"
)
