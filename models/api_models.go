package models

// ErrorResponse is the JSON body returned for every non-streamed failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// WebSocketDone marks the end of one streamed reply on the chat socket.
type WebSocketDone struct {
	Type string `json:"type"` // always "done"
}
