package sessions

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Desarso/deckchat/models"
	"github.com/Desarso/deckchat/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebSocketSession serves chat requests over one WebSocket connection. Every
// inbound text frame is a complete chat request; nothing is remembered
// between frames.
type WebSocketSession struct {
	Model     models.Model
	Encoder   protocol.Encoder
	Options   ChatOptions
	SessionID string
	Writer    *WebSocketWriter
	Logger    zerolog.Logger
}

// Run reads requests until the connection closes or ctx is cancelled.
func (ws *WebSocketSession) Run(ctx context.Context) error {
	for {
		msgType, data, err := ws.Writer.Conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ws.Logger.Info().Msg("client closed connection")
				return nil
			}
			return err
		}
		if msgType != websocket.TextMessage {
			ws.Logger.Warn().Int("type", msgType).Msg("ignoring non-text frame")
			continue
		}

		if err := ws.RunInteraction(ctx, data); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// request-level failures were already reported to the client
			var streamErr *StreamError
			if !errors.As(err, &streamErr) {
				return err
			}
		}
	}
}

// RunInteraction handles one request frame: it streams the completion parts
// and finishes with a done frame, or reports the failure as an error frame.
func (ws *WebSocketSession) RunInteraction(ctx context.Context, data []byte) error {
	var request models.Chat_Request
	if err := json.Unmarshal(data, &request); err != nil {
		return ws.sendError("invalid chat request: "+err.Error(), false)
	}

	ws.Writer.reset()
	chat := &ChatSession{
		Model:     ws.Model,
		Encoder:   ws.Encoder,
		Options:   ws.Options,
		SessionID: ws.SessionID,
		Logger:    ws.Logger,
	}

	stream, err := chat.Open(ctx, request)
	if err != nil {
		return ws.sendError(err.Error(), true)
	}
	if err := stream.Pump(ws.Writer); err != nil {
		ws.Writer.WriteDone()
		return err
	}
	return ws.Writer.WriteDone()
}

// sendError sends an error message and returns a StreamError
func (ws *WebSocketSession) sendError(message string, fatal bool) error {
	ws.Logger.Warn().Str("error", message).Bool("fatal", fatal).Msg("chat request failed")
	if err := ws.Writer.WriteError(message); err != nil {
		return err
	}
	return &StreamError{Message: message, Fatal: fatal}
}
