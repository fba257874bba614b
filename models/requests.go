package models

// Chat_Request is the body of POST /api/chat.
type Chat_Request struct {
	Messages []ClientMessage `json:"messages"`
	System   *SystemHint     `json:"system,omitempty"`
}

// SystemHint lets the client steer the system prompt. It is usually the
// DeckMetadata returned by /api/presentation_meta, sent back verbatim.
type SystemHint struct {
	Title        string `json:"title,omitempty"`
	RawPreview   string `json:"rawPreview,omitempty"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
}

// Presentation_Meta_Request is the body of POST /api/presentation_meta.
type Presentation_Meta_Request struct {
	PDFDataURL string `json:"pdf_data_url" binding:"required"`
	Filename   string `json:"filename,omitempty"`
}

// CompletionRequest is what the gateway hands to a Model.
type CompletionRequest struct {
	Model       string
	Messages    []ProviderMessage
	Temperature *float64
	MaxTokens   *int
}
