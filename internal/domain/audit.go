package domain

// Privileged actions recorded by the audit trail. Closed set: new actions
// are added here, never invented at call sites.
const (
	ActionCreateNotification  = "CREATE_NOTIFICATION"
	ActionBatchNotification   = "BATCH_NOTIFICATION"
	ActionClassNotification   = "CLASS_NOTIFICATION"
	ActionPostComment         = "POST_COMMENT"
	ActionSendReminders       = "SEND_REMINDERS"
	ActionExpireNotifications = "EXPIRE_NOTIFICATIONS"
)

const (
	AuditStatusSuccess = "success"
	AuditStatusFailed  = "failed"
	AuditStatusPending = "pending"
)
