package sessions

import (
	"context"
	"time"

	"github.com/Desarso/deckchat/models"
	"github.com/Desarso/deckchat/prompts"
	"github.com/Desarso/deckchat/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ChatOptions are the completion parameters applied to every request.
type ChatOptions struct {
	Model       string
	Temperature *float64
	MaxTokens   *int
}

// ChatSession turns one chat request into an encoded completion stream.
type ChatSession struct {
	Model     models.Model
	Encoder   protocol.Encoder
	Options   ChatOptions
	SessionID string
	Logger    zerolog.Logger
}

// ChatStream is an opened completion whose first provider event has already
// been received. It is consumed once by Pump.
type ChatStream struct {
	ctx       context.Context
	session   *ChatSession
	messageID string
	started   time.Time

	pending *models.StreamChunk
	respCh  <-chan models.StreamChunk
	errCh   <-chan error
}

// BuildRequest prepends the system prompt and normalizes the conversation.
func (s *ChatSession) BuildRequest(request models.Chat_Request) models.CompletionRequest {
	messages := models.NormalizeMessages(prompts.WithSystem(request.System, request.Messages))
	return models.CompletionRequest{
		Model:       s.Options.Model,
		Messages:    messages,
		Temperature: s.Options.Temperature,
		MaxTokens:   s.Options.MaxTokens,
	}
}

// Open starts the completion and blocks until the provider produces its first
// event. A provider failure at this point is returned as a fatal StreamError
// so the caller can still answer with an error status.
func (s *ChatSession) Open(ctx context.Context, request models.Chat_Request) (*ChatStream, error) {
	completion := s.BuildRequest(request)
	s.Logger.Info().
		Int("client_messages", len(request.Messages)).
		Int("provider_messages", len(completion.Messages)).
		Str("protocol", s.Encoder.Name()).
		Msg("opening completion stream")

	started := time.Now()
	respCh, errCh := s.Model.Stream_Model_Request(ctx, completion)

	stream := &ChatStream{
		ctx:       ctx,
		session:   s,
		messageID: "msg-" + uuid.NewString(),
		started:   started,
		respCh:    respCh,
		errCh:     errCh,
	}

	for stream.respCh != nil || stream.errCh != nil {
		select {
		case chunk, ok := <-stream.respCh:
			if !ok {
				stream.respCh = nil
				continue
			}
			stream.pending = &chunk
			s.Logger.Debug().Dur("ttft", time.Since(started)).Msg("first provider chunk")
			return stream, nil

		case err, ok := <-stream.errCh:
			if ok && err != nil {
				s.Logger.Error().Err(err).Msg("completion failed before streaming")
				return nil, &StreamError{Message: "completion failed", Fatal: true, Err: err}
			}
			if !ok {
				stream.errCh = nil
			}

		case <-ctx.Done():
			return nil, &StreamError{Message: "request cancelled", Fatal: true, Err: ctx.Err()}
		}
	}

	// The provider finished without producing anything.
	return stream, nil
}

// Pump writes the whole stream to w: the start part, every text delta and
// tool call as it arrives, then the finish parts. A provider error after the
// first chunk is written as an error part and ends the stream with a
// non-fatal StreamError.
func (cs *ChatStream) Pump(w PartWriter) error {
	s := cs.session
	enc := s.Encoder

	finished := false
	var textLen int
	emit := func(parts []string) error {
		for _, p := range parts {
			if err := w.WritePart(p); err != nil {
				s.Logger.Warn().Err(err).Msg("error writing stream part")
				return &StreamError{Message: "client write failed", Err: err}
			}
		}
		return nil
	}
	handle := func(chunk models.StreamChunk) error {
		textLen += len(chunk.Text)
		if err := emit(enc.Text(chunk.Text)); err != nil {
			return err
		}
		if len(chunk.ToolCalls) > 0 {
			if err := emit(enc.ToolCalls(chunk.ToolCalls)); err != nil {
				return err
			}
		}
		if chunk.FinishReason != "" {
			finished = true
			return emit(enc.Finish(chunk.FinishReason, chunk.Usage))
		}
		return nil
	}

	if err := emit(enc.Start(cs.messageID)); err != nil {
		return err
	}
	if cs.pending != nil {
		if err := handle(*cs.pending); err != nil {
			return err
		}
		cs.pending = nil
	}

	for cs.respCh != nil || cs.errCh != nil {
		select {
		case chunk, ok := <-cs.respCh:
			if !ok {
				cs.respCh = nil
				continue
			}
			if err := handle(chunk); err != nil {
				return err
			}

		case err, ok := <-cs.errCh:
			if ok && err != nil {
				s.Logger.Error().Err(err).Int("text_bytes", textLen).Msg("completion stream cut short")
				if writeErr := emit(enc.Error(err.Error())); writeErr != nil {
					return writeErr
				}
				return &StreamError{Message: "completion stream interrupted", Err: err}
			}
			if !ok {
				cs.errCh = nil
			}

		case <-cs.ctx.Done():
			s.Logger.Info().Msg("client disconnected")
			return &StreamError{Message: "request cancelled", Err: cs.ctx.Err()}
		}
	}

	if !finished {
		if err := emit(enc.Finish(models.FinishUnknown, nil)); err != nil {
			return err
		}
	}
	s.Logger.Info().
		Dur("elapsed", time.Since(cs.started)).
		Int("text_bytes", textLen).
		Msg("completion stream finished")
	return nil
}

// MessageID is the id announced in the stream's start part.
func (cs *ChatStream) MessageID() string {
	return cs.messageID
}
