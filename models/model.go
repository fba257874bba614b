package models

import (
	"context"
	"fmt"
)

// Model is the LLM chat-completion capability the gateway consumes.
//
// Stream_Model_Request must close both channels when the stream ends. An
// error sent before any chunk means the request failed outright; an error
// after chunks were delivered means the stream was cut short.
type Model interface {
	Name() string
	Model_Request(ctx context.Context, request CompletionRequest) (string, error)
	Stream_Model_Request(ctx context.Context, request CompletionRequest) (<-chan StreamChunk, <-chan error)
}

// ProviderError wraps a failure reported by (or while talking to) an LLM provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// FailedStream returns a stream that immediately reports err.
func FailedStream(err error) (<-chan StreamChunk, <-chan error) {
	respChan := make(chan StreamChunk)
	errChan := make(chan error, 1)
	errChan <- err
	close(errChan)
	close(respChan)
	return respChan, errChan
}
