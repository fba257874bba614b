package models

import "strings"

// Roles understood by the chat-completion providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Content part types
const (
	PartTypeText     = "text"
	PartTypeImageURL = "image_url"
)

// ClientMessage is one turn of the conversation as the chat client sends it.
// Attachments may arrive either under the AI SDK's "experimental_attachments"
// key or under "attachments".
type ClientMessage struct {
	Role                    string           `json:"role"`
	Content                 string           `json:"content"`
	ExperimentalAttachments []Attachment     `json:"experimental_attachments,omitempty"`
	Attachments             []Attachment     `json:"attachments,omitempty"`
	ToolInvocations         []ToolInvocation `json:"toolInvocations,omitempty"`
}

// AllAttachments returns the message attachments, preferring the
// experimental_attachments field when both are present.
func (m ClientMessage) AllAttachments() []Attachment {
	if len(m.ExperimentalAttachments) > 0 {
		return m.ExperimentalAttachments
	}
	return m.Attachments
}

type Attachment struct {
	Name        string `json:"name,omitempty"`
	ContentType string `json:"contentType"`
	URL         string `json:"url"` // remote URL or data URL, never fetched here
}

// IsImage reports whether the attachment is forwarded as an image reference.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.ContentType, "image")
}

// IsText reports whether the attachment is forwarded as a text part.
func (a Attachment) IsText() bool {
	return strings.HasPrefix(a.ContentType, "text")
}

// ProviderMessage is the provider-neutral chat-completion message produced by
// NormalizeMessages. Every provider adapter converts it into its own SDK type.
type ProviderMessage struct {
	Role       string        `json:"role"`
	Content    []ContentPart `json:"content"`
	ToolCalls  []ToolCall    `json:"tool_calls"`             // nil means "no tool calls"
	ToolCallID string        `json:"tool_call_id,omitempty"` // set on role "tool"
}

// Text concatenates the text parts of the message.
func (m ProviderMessage) Text() string {
	var sb strings.Builder
	for _, part := range m.Content {
		if part.Type == PartTypeText {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

type ContentPart struct {
	Type     string `json:"type"` // "text" or "image_url"
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartTypeText, Text: text}
}

// ImagePart builds an image-reference content part.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: PartTypeImageURL, ImageURL: url}
}

// SystemMessage builds a provider message carrying a single text part.
func SystemMessage(text string) ProviderMessage {
	return ProviderMessage{Role: RoleSystem, Content: []ContentPart{TextPart(text)}}
}

// UserMessage builds a plain-text user provider message.
func UserMessage(text string) ProviderMessage {
	return ProviderMessage{Role: RoleUser, Content: []ContentPart{TextPart(text)}}
}
