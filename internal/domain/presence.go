package domain

const (
	PresenceOnline  = "online"
	PresenceAway    = "away"
	PresenceOffline = "offline"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
	RoleParent  = "parent"
)

// CanSendNotifications gates the privileged send paths at the gateway and
// REST boundary. Students and parents receive, they do not send.
func CanSendNotifications(role string) bool {
	return role == RoleTeacher || role == RoleAdmin
}
