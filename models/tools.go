package models

// Tool invocation states as reported by the chat client.
const (
	ToolStateCall   = "call"
	ToolStateResult = "result"
)

// ToolInvocation is a client-side record of a tool call and, once available,
// its result. The ToolCallID of a "result" invocation is expected to match the
// id of its call; nothing here validates that.
type ToolInvocation struct {
	State      string `json:"state"`
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
	Args       any    `json:"args"`
	Result     any    `json:"result"`
}

// ToolCall is the provider-side description of a function call.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON text
}
