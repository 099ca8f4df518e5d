package model

// Role tags a conversation turn for the completion API.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message as fetched from the platform.
// Messages are read-only and discarded once a turn completes.
type Message struct {
	AuthorID  string
	Timestamp Timestamp
	Text      string
	IsBot     bool
}

// ConversationTurn is one role-tagged unit sent to the completion API.
// A turn sequence is built per request and never persisted.
type ConversationTurn struct {
	Role    Role
	Content string
}

func SystemTurn(content string) ConversationTurn {
	return ConversationTurn{Role: RoleSystem, Content: content}
}

func UserTurn(content string) ConversationTurn {
	return ConversationTurn{Role: RoleUser, Content: content}
}

func AssistantTurn(content string) ConversationTurn {
	return ConversationTurn{Role: RoleAssistant, Content: content}
}
