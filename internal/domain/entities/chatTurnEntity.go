package entities

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one message of a conversation. Turns are values and are never
// mutated once appended to a transcript.
type ChatTurn struct {
	Role    Role   `json:"role" bson:"role"`
	Content string `json:"content" bson:"content"`
}

func UserTurn(content string) ChatTurn {
	return ChatTurn{Role: RoleUser, Content: content}
}

func AssistantTurn(content string) ChatTurn {
	return ChatTurn{Role: RoleAssistant, Content: content}
}

func SystemTurn(content string) ChatTurn {
	return ChatTurn{Role: RoleSystem, Content: content}
}

// UserTranscript is the stored shape of one user's append-only transcript.
type UserTranscript struct {
	UserID    string     `json:"user_id" bson:"user_id"`
	Turns     []ChatTurn `json:"turns" bson:"turns"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updated_at"`
}
