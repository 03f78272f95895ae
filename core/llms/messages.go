package llms

// Response is a single response from an LLM.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Message is a single message in a conversation.
type Message struct {
	Role    MessageRole
	Content string

	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall
	// ToolCallID is set on tool messages and names the call being answered.
	ToolCallID string
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments string
	Response  string
}

// MessageRole describes who the message is from.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)
