package models

// StreamChunk is one incremental piece of a streamed completion.
// A chunk carries text, finished tool calls, or the final finish reason and usage.
type StreamChunk struct {
	Text         string     `json:"text,omitempty"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// Finish reasons reported on the last chunk.
const (
	FinishStop      = "stop"
	FinishLength    = "length"
	FinishToolCalls = "tool-calls"
	FinishUnknown   = "unknown"
)

// DeckMetadata describes an uploaded presentation.
type DeckMetadata struct {
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	SuggestedActions []SuggestedAction `json:"suggestedActions"`
	SystemPrompt     *string           `json:"systemPrompt"`
	Topics           []string          `json:"topics"`
	RawPreview       string            `json:"rawPreview"`
}

type SuggestedAction struct {
	Title  string `json:"title"`
	Label  string `json:"label"`
	Action string `json:"action"`
}
