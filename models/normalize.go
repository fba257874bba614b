package models

import "encoding/json"

// NormalizeMessages converts client conversation turns into provider messages.
//
// Each client message becomes one provider message whose content starts with
// a text part holding the message content (even when empty), followed by one
// part per recognised attachment. Every tool invocation adds a tool call to
// that message and a trailing "tool" message carrying the JSON result, so the
// output has len(messages) + (total tool invocations) entries.
func NormalizeMessages(messages []ClientMessage) []ProviderMessage {
	out := make([]ProviderMessage, 0, len(messages))

	for _, message := range messages {
		parts := []ContentPart{TextPart(message.Content)}

		for _, attachment := range message.AllAttachments() {
			switch {
			case attachment.IsImage():
				parts = append(parts, ImagePart(attachment.URL))
			case attachment.IsText():
				// the url itself is forwarded as the text, it is not fetched
				parts = append(parts, TextPart(attachment.URL))
			}
		}

		var toolCalls []ToolCall
		for _, invocation := range message.ToolInvocations {
			toolCalls = append(toolCalls, ToolCall{
				ID:        invocation.ToolCallID,
				Name:      invocation.ToolName,
				Arguments: marshalJSON(invocation.Args),
			})
		}

		out = append(out, ProviderMessage{
			Role:      message.Role,
			Content:   parts,
			ToolCalls: toolCalls,
		})

		for _, invocation := range message.ToolInvocations {
			out = append(out, ProviderMessage{
				Role:       RoleTool,
				Content:    []ContentPart{TextPart(marshalJSON(invocation.Result))},
				ToolCallID: invocation.ToolCallID,
			})
		}
	}

	return out
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
