package model

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message sent to a generator.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is a complete, non-streamed generator answer.
type ChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// Prompt is the rendered system and user message pair.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Messages returns the prompt as chat messages, system first.
func (p Prompt) Messages() []Message {
	return []Message{
		{Role: RoleSystem, Content: p.System},
		{Role: RoleUser, Content: p.User},
	}
}
