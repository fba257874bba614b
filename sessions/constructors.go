package sessions

import (
	"github.com/Desarso/deckchat/models"
	"github.com/Desarso/deckchat/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// NewChatSession creates a single-request chat session. An empty sessionID is
// replaced with a fresh uuid.
func NewChatSession(sessionID string, model models.Model, encoder protocol.Encoder, opts ChatOptions) *ChatSession {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &ChatSession{
		Model:     model,
		Encoder:   encoder,
		Options:   opts,
		SessionID: sessionID,
		Logger:    log.With().Str("session", sessionID).Str("transport", "http").Logger(),
	}
}

// NewWebSocketSession creates a WebSocket chat session for one connection.
func NewWebSocketSession(sessionID string, conn *websocket.Conn, model models.Model, encoder protocol.Encoder, opts ChatOptions) *WebSocketSession {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger := log.With().Str("session", sessionID).Str("transport", "ws").Logger()

	return &WebSocketSession{
		Model:     model,
		Encoder:   encoder,
		Options:   opts,
		SessionID: sessionID,
		Writer:    &WebSocketWriter{Conn: conn, Logger: logger},
		Logger:    logger,
	}
}
