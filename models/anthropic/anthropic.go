package anthropic

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	models "github.com/Desarso/deckchat/models"
	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 2048
	DefaultAPIKeyEnv = "ANTHROPIC_API_KEY"
	ProviderName     = "anthropic"
)

type Option func(*Anthropic_Model)

func WithModel(model string) Option {
	return func(a *Anthropic_Model) { a.Model = model }
}

func WithBaseURL(baseURL string) Option {
	return func(a *Anthropic_Model) { a.BaseURL = baseURL }
}

func WithAPIKeyEnv(env string) Option {
	return func(a *Anthropic_Model) { a.APIKeyEnv = env }
}

func WithMaxTokens(n int) Option {
	return func(a *Anthropic_Model) { a.MaxTokens = n }
}

// Anthropic_Model implements models.Model for the Anthropic Messages API.
type Anthropic_Model struct {
	Model     string
	MaxTokens int    // required by the Messages API
	BaseURL   string // Optional: custom API endpoint
	APIKeyEnv string // Optional: env var name for API key (defaults to ANTHROPIC_API_KEY)

	client sdk.Client
}

func New(opts ...Option) *Anthropic_Model {
	a := &Anthropic_Model{Model: DefaultModel, MaxTokens: DefaultMaxTokens}
	for _, opt := range opts {
		opt(a)
	}

	apiKeyEnv := a.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = DefaultAPIKeyEnv
	}
	clientOpts := []option.RequestOption{option.WithAPIKey(os.Getenv(apiKeyEnv))}
	if a.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(a.BaseURL))
	}
	a.client = sdk.NewClient(clientOpts...)
	return a
}

func (a *Anthropic_Model) Name() string {
	return ProviderName
}

// Model_Request implements models.Model for non-streaming requests.
func (a *Anthropic_Model) Model_Request(ctx context.Context, request models.CompletionRequest) (string, error) {
	msg, err := a.client.Messages.New(ctx, a.buildParams(request))
	if err != nil {
		return "", &models.ProviderError{Provider: ProviderName, Err: err}
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// Stream_Model_Request implements models.Model for streaming requests.
func (a *Anthropic_Model) Stream_Model_Request(ctx context.Context, request models.CompletionRequest) (<-chan models.StreamChunk, <-chan error) {
	respChan := make(chan models.StreamChunk)
	errChan := make(chan error, 1)

	go func() {
		defer close(respChan)
		defer close(errChan)

		stream := a.client.Messages.NewStreaming(ctx, a.buildParams(request))
		defer stream.Close()

		send := func(chunk models.StreamChunk) bool {
			select {
			case respChan <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		toolCalls := map[int64]*models.ToolCall{}
		usage := &models.Usage{}
		finishReason := models.FinishUnknown

		for stream.Next() {
			switch event := stream.Current().AsAny().(type) {
			case sdk.MessageStartEvent:
				usage.PromptTokens = int(event.Message.Usage.InputTokens)

			case sdk.ContentBlockStartEvent:
				if event.ContentBlock.Type == "tool_use" {
					toolCalls[event.Index] = &models.ToolCall{ID: event.ContentBlock.ID, Name: event.ContentBlock.Name}
				}

			case sdk.ContentBlockDeltaEvent:
				switch delta := event.Delta.AsAny().(type) {
				case sdk.TextDelta:
					if delta.Text != "" && !send(models.StreamChunk{Text: delta.Text}) {
						return
					}
				case sdk.InputJSONDelta:
					if tc, ok := toolCalls[event.Index]; ok {
						tc.Arguments += delta.PartialJSON
					}
				}

			case sdk.MessageDeltaEvent:
				finishReason = mapStopReason(string(event.Delta.StopReason))
				usage.CompletionTokens = int(event.Usage.OutputTokens)
			}
		}
		if err := stream.Err(); err != nil {
			errChan <- &models.ProviderError{Provider: ProviderName, Err: fmt.Errorf("error reading stream: %w", err)}
			return
		}

		if len(toolCalls) > 0 {
			if !send(models.StreamChunk{ToolCalls: sortedToolCalls(toolCalls)}) {
				return
			}
		}
		send(models.StreamChunk{FinishReason: finishReason, Usage: usage})
	}()

	return respChan, errChan
}

func (a *Anthropic_Model) buildParams(request models.CompletionRequest) sdk.MessageNewParams {
	model := request.Model
	if model == "" {
		model = a.Model
	}
	maxTokens := a.MaxTokens
	if request.MaxTokens != nil {
		maxTokens = *request.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	system, messages := ConvertMessages(request.Messages)
	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}
	if request.Temperature != nil {
		params.Temperature = sdk.Float(*request.Temperature)
	}
	return params
}

func sortedToolCalls(acc map[int64]*models.ToolCall) []models.ToolCall {
	indexes := make([]int64, 0, len(acc))
	for idx := range acc {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	calls := make([]models.ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		tc := *acc[idx]
		if tc.Arguments == "" {
			tc.Arguments = "{}"
		}
		calls = append(calls, tc)
	}
	return calls
}

func mapStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return models.FinishStop
	case "max_tokens":
		return models.FinishLength
	case "tool_use":
		return models.FinishToolCalls
	default:
		return models.FinishUnknown
	}
}
