// Package protocol frames completion streams for the chat client.
//
// Two framings are supported. "data" is the AI SDK data stream (v1): one
// typed part per line, e.g. `0:"Hello"`. "text" forwards raw text deltas and
// nothing else.
package protocol

import (
	"errors"
	"fmt"

	models "github.com/Desarso/deckchat/models"
)

const (
	Data = "data"
	Text = "text"

	// StreamHeader is set on every streamed chat response.
	StreamHeader        = "x-vercel-ai-data-stream"
	StreamHeaderVersion = "v1"
	ContentType         = "text/plain; charset=utf-8"
)

var ErrUnknownProtocol = errors.New("unknown stream protocol")

// Encoder turns stream events into wire parts. Each returned string is one
// complete part, ready to be written as-is or sent as a single frame.
type Encoder interface {
	Name() string
	Start(messageID string) []string
	Text(delta string) []string
	ToolCalls(calls []models.ToolCall) []string
	Error(message string) []string
	Finish(finishReason string, usage *models.Usage) []string
}

// New returns the encoder for a protocol identifier. An empty identifier
// selects the data protocol.
func New(name string) (Encoder, error) {
	switch name {
	case "", Data:
		return DataEncoder{}, nil
	case Text:
		return TextEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, name)
	}
}
