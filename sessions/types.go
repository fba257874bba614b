package sessions

import (
	"sync"
	"time"

	"github.com/Desarso/deckchat/models"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// StreamError represents errors that can occur while streaming a completion.
// Fatal errors happened before anything was written and should fail the
// request; non-fatal ones cut an already started stream short.
type StreamError struct {
	Message string
	Fatal   bool
	Err     error
}

func (e *StreamError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// PartWriter receives encoded stream parts in order.
type PartWriter interface {
	WritePart(part string) error
}

// WebSocketWriter handles all WebSocket communication
type WebSocketWriter struct {
	Conn             *websocket.Conn
	Logger           zerolog.Logger
	StartTime        time.Time
	FirstTokenLogged bool
	mu               sync.Mutex
}

// WritePart sends one encoded stream part as a text frame.
func (w *WebSocketWriter) WritePart(part string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	// Track time to first token
	if !w.FirstTokenLogged && !w.StartTime.IsZero() {
		w.Logger.Debug().Dur("ttft", time.Since(w.StartTime)).Msg("first part written")
		w.FirstTokenLogged = true
	}
	return w.Conn.WriteMessage(websocket.TextMessage, []byte(part))
}

func (w *WebSocketWriter) WriteError(message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(models.ErrorResponse{Error: message})
}

func (w *WebSocketWriter) WriteDone() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(models.WebSocketDone{Type: "done"})
}

// reset prepares the writer for the next request on the same connection.
func (w *WebSocketWriter) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.StartTime = time.Now()
	w.FirstTokenLogged = false
}
