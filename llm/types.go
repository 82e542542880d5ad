// ABOUTME: Core data model for single-shot language-model calls used across the pipeline.
// ABOUTME: Defines Role, Message, Request, the Chat interface, and message constructor helpers.
package llm

import "context"

// Role represents who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleDeveloper Role = "developer"
)

// Message is a single message in a chat request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request describes one synchronous chat completion call.
type Request struct {
	Model           string    `json:"model"`
	Messages        []Message `json:"messages"`
	ReasoningEffort string    `json:"reasoning_effort,omitempty"` // "low", "medium", "high"
}

// Chat is the capability the pipeline consumes for planner, qualitative,
// and synthesis calls: one request in, the assistant's text out.
type Chat interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// SystemMessage constructs a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage constructs a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// DeveloperMessage constructs a developer-role message. Reasoning models
// accept developer instructions where older models use system.
func DeveloperMessage(content string) Message {
	return Message{Role: RoleDeveloper, Content: content}
}
