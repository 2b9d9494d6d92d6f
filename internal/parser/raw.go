package parser

// Raw export shapes, decoded at the boundary. The export format is loosely
// typed; every field is optional and anything malformed downgrades to a
// per-conversation skip, never a hard failure.

type RawConversation struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	CreateTime  *float64           `json:"create_time"`
	UpdateTime  *float64           `json:"update_time"`
	Mapping     map[string]RawNode `json:"mapping"`
	CurrentNode string             `json:"current_node"`
}

type RawNode struct {
	ID      string      `json:"id"`
	Parent  string      `json:"parent"`
	Message *RawMessage `json:"message"`
}

type RawMessage struct {
	Author     RawAuthor   `json:"author"`
	Content    RawContent  `json:"content"`
	CreateTime *float64    `json:"create_time"`
	Metadata   RawMetadata `json:"metadata"`
}

type RawAuthor struct {
	Role string `json:"role"`
}

type RawContent struct {
	ContentType string        `json:"content_type"`
	Parts       []interface{} `json:"parts"`
}

type RawMetadata struct {
	IsUserSystemMessage bool   `json:"is_user_system_message"`
	ModelSlug           string `json:"model_slug"`
}
