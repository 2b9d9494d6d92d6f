package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one entry on the resolved active branch of a conversation.
// Timestamps are unix seconds with float precision, as found in the export.
type Message struct {
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	Timestamp *float64 `json:"timestamp,omitempty"`
}

// Conversation is the linearized form of one exported conversation tree,
// messages in root-to-leaf order along the active branch.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreateTime   *float64  `json:"create_time,omitempty"`
	UpdateTime   *float64  `json:"update_time,omitempty"`
	Messages     []Message `json:"messages"`
	MessageCount int       `json:"message_count"`
	ModelSlug    string    `json:"model_slug,omitempty"`
}
