package domain

const (
	RoleOwner  = "OWNER"
	RoleTenant = "TENANT"
	RoleAdmin  = "ADMIN"
)

const (
	MessageTypeText            = "TEXT"
	MessageTypeContractInquiry = "CONTRACT_INQUIRY"
	MessageTypeSpaceInquiry    = "SPACE_INQUIRY"
	MessageTypeSystem          = "SYSTEM_MESSAGE"
)

var MessageTypes = []string{
	MessageTypeText,
	MessageTypeContractInquiry,
	MessageTypeSpaceInquiry,
	MessageTypeSystem,
}

const (
	NotificationContractCreated    = "CONTRACT_CREATED"
	NotificationContractExpiring   = "CONTRACT_EXPIRING"
	NotificationContractTerminated = "CONTRACT_TERMINATED"
	NotificationSpaceAvailable     = "SPACE_AVAILABLE"
	NotificationMessageReceived    = "MESSAGE_RECEIVED"
	NotificationPaymentDue         = "PAYMENT_DUE"
	NotificationSystemAlert        = "SYSTEM_ALERT"
)

var NotificationTypes = []string{
	NotificationContractCreated,
	NotificationContractExpiring,
	NotificationContractTerminated,
	NotificationSpaceAvailable,
	NotificationMessageReceived,
	NotificationPaymentDue,
	NotificationSystemAlert,
}

// Push event types sent over the live channel.
const (
	EventNewMessage      = "NEW_MESSAGE"
	EventMessageRead     = "MESSAGE_READ"
	EventMessagesRead    = "MESSAGES_READ"
	EventNewNotification = "NEW_NOTIFICATION"

	// Replies to a live-channel frame, sent to the originating connection only.
	EventMessageSent = "MESSAGE_SENT"
	EventError       = "ERROR"
)

// MaxMessageLength is counted in characters after trimming.
const MaxMessageLength = 2000

// Notification field limits, in characters, matching the column sizes.
const (
	MaxNotificationTitleLength   = 255
	MaxNotificationMessageLength = 1000
	MaxActionURLLength           = 500
)
