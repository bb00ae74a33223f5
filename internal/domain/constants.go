package domain

// Notification kinds
const (
	KindMessage  = "message"
	KindCall     = "call"
	KindStatus   = "status"
	KindSystem   = "system"
	KindReminder = "reminder"
)

// Notification priorities
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityMax    = "max"
)

// Notification permission states
const (
	PermissionDefault = "default"
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
)

// Notification action identifiers
const (
	ActionReply    = "reply"
	ActionMarkRead = "mark-read"
	ActionAnswer   = "answer"
	ActionDecline  = "decline"
	ActionMessage  = "message"
)

// Bridge message types: page -> worker
const (
	MsgNotificationSettings       = "NOTIFICATION_SETTINGS"
	MsgNotificationSettingsUpdate = "NOTIFICATION_SETTINGS_UPDATE"
	MsgGetCacheStatus             = "GET_CACHE_STATUS"
	MsgClearCache                 = "CLEAR_CACHE"
	MsgPrefetchResources          = "PREFETCH_RESOURCES"
	MsgBadgeUpdate                = "BADGE_UPDATE"
)

// Bridge message types: worker -> page
const (
	MsgSWUpdate     = "SW_UPDATE"
	MsgSWReady      = "SW_READY"
	MsgOpenChat     = "OPEN_CHAT"
	MsgBanner       = "IN_APP_NOTIFICATION"
	MsgShowNative   = "SHOW_NOTIFICATION"
	MsgAnswerCall   = "ANSWER_CALL"
	MsgDeclineCall  = "DECLINE_CALL"
	MsgCacheCleared = "CACHE_CLEARED"
)

// Cache partitions. Each partition is bound to exactly one strategy.
const (
	PartitionStatic = "static"
	PartitionAPI    = "api"
	PartitionMedia  = "media"
)

// Background sync tags
const (
	SyncMessages     = "sync-messages"
	SyncReadReceipts = "sync-read-receipts"
	SyncStatus       = "sync-status"
	SyncPresence     = "update-presence"
)

// Local store keys (scoped per user)
const (
	KeyNotificationSettings = "whatsapp_notification_settings"
	KeyPendingNotifications = "whatsapp_pending_notifications"
	KeyNotificationHistory  = "whatsapp_notification_history"
)
