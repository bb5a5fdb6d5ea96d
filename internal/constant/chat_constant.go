package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	DefaultChatTitle = "New Chat"

	// Server-side message ids look like "msgs-<16 chars>".
	MessageIdPrefix = "msgs"
	MessageIdSize   = 16
)

const (
	EventChatCreated           = "CHAT_CREATED"
	EventChatSaved             = "CHAT_SAVED"
	EventChatDeleted           = "CHAT_DELETED"
	EventChatVisibilityChanged = "CHAT_VISIBILITY_CHANGED"
)

func IsValidMessageRole(role string) bool {
	return role == ChatMessageRoleUser || role == ChatMessageRoleAssistant
}
