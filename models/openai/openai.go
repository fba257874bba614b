package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"

	models "github.com/Desarso/deckchat/models"
	"github.com/rs/zerolog/log"
	goopenai "github.com/sashabaranov/go-openai"
)

const (
	DefaultModel     = "gpt-4o-mini"
	DefaultAPIKeyEnv = "OPENAI_API_KEY"
	ProviderName     = "openai"
)

// OpenAI_Model implements models.Model for the OpenAI chat-completions API.
// Any OpenAI-compatible endpoint works through BaseURL (OpenRouter, Groq,
// Cerebras, local servers).
type OpenAI_Model struct {
	Model     string // Default model when the request does not name one
	BaseURL   string // Optional: custom API base URL (defaults to api.openai.com)
	APIKeyEnv string // Optional: env var holding the API key (defaults to OPENAI_API_KEY)
	SiteURL   string // Optional: OpenRouter attribution
	SiteName  string // Optional: OpenRouter attribution

	client *goopenai.Client
}

type Option func(*OpenAI_Model)

func WithModel(model string) Option {
	return func(o *OpenAI_Model) { o.Model = model }
}

func WithBaseURL(baseURL string) Option {
	return func(o *OpenAI_Model) { o.BaseURL = baseURL }
}

func WithAPIKeyEnv(env string) Option {
	return func(o *OpenAI_Model) { o.APIKeyEnv = env }
}

// WithSite sets the OpenRouter ranking headers.
func WithSite(url, name string) Option {
	return func(o *OpenAI_Model) {
		o.SiteURL = url
		o.SiteName = name
	}
}

// New builds an OpenAI_Model and its underlying client.
func New(opts ...Option) *OpenAI_Model {
	o := &OpenAI_Model{Model: DefaultModel}
	for _, opt := range opts {
		opt(o)
	}
	o.client = o.newClient()
	return o
}

func (o *OpenAI_Model) Name() string {
	return ProviderName
}

func (o *OpenAI_Model) newClient() *goopenai.Client {
	apiKeyEnv := o.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = DefaultAPIKeyEnv
	}

	config := goopenai.DefaultConfig(os.Getenv(apiKeyEnv))
	if o.BaseURL != "" {
		config.BaseURL = o.BaseURL
	}

	headers := map[string]string{}
	if o.SiteURL != "" {
		headers["HTTP-Referer"] = o.SiteURL
	}
	if o.SiteName != "" {
		headers["X-Title"] = o.SiteName
	}
	if len(headers) > 0 {
		config.HTTPClient = &http.Client{Transport: &headerTransport{headers: headers, base: http.DefaultTransport}}
	}

	return goopenai.NewClientWithConfig(config)
}

func (o *OpenAI_Model) getClient() *goopenai.Client {
	if o.client == nil {
		o.client = o.newClient()
	}
	return o.client
}

// Model_Request performs a single non-streamed completion and returns the reply text.
func (o *OpenAI_Model) Model_Request(ctx context.Context, request models.CompletionRequest) (string, error) {
	req := o.createRequest(request, false)

	resp, err := o.getClient().CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &models.ProviderError{Provider: ProviderName, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &models.ProviderError{Provider: ProviderName, Err: errors.New("response has no choices")}
	}

	return resp.Choices[0].Message.Content, nil
}

// Stream_Model_Request streams a completion. Text deltas are forwarded as
// they arrive; tool calls are accumulated and emitted once complete; the last
// chunk carries the finish reason and usage.
func (o *OpenAI_Model) Stream_Model_Request(ctx context.Context, request models.CompletionRequest) (<-chan models.StreamChunk, <-chan error) {
	respChan := make(chan models.StreamChunk)
	errChan := make(chan error, 1)

	go func() {
		defer close(respChan)
		defer close(errChan)

		stream, err := o.getClient().CreateChatCompletionStream(ctx, o.createRequest(request, true))
		if err != nil {
			errChan <- &models.ProviderError{Provider: ProviderName, Err: err}
			return
		}
		defer stream.Close()

		send := func(chunk models.StreamChunk) bool {
			select {
			case respChan <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		// Track accumulated tool calls across stream chunks, keyed by index
		toolCallAccumulator := make(map[int]*models.ToolCall)
		finishReason := models.FinishUnknown
		var usage *models.Usage

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				errChan <- &models.ProviderError{Provider: ProviderName, Err: fmt.Errorf("error reading stream: %w", err)}
				return
			}

			if resp.Usage != nil {
				usage = &models.Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
				}
			}

			for _, choice := range resp.Choices {
				if choice.FinishReason != "" {
					finishReason = mapFinishReason(choice.FinishReason)
				}

				for _, toolCall := range choice.Delta.ToolCalls {
					idx := 0
					if toolCall.Index != nil {
						idx = *toolCall.Index
					}
					if existing, ok := toolCallAccumulator[idx]; ok {
						existing.Arguments += toolCall.Function.Arguments
					} else {
						toolCallAccumulator[idx] = &models.ToolCall{
							ID:        toolCall.ID,
							Name:      toolCall.Function.Name,
							Arguments: toolCall.Function.Arguments,
						}
					}
				}

				if choice.Delta.Content != "" {
					if !send(models.StreamChunk{Text: choice.Delta.Content}) {
						return
					}
				}
			}
		}

		if len(toolCallAccumulator) > 0 {
			if !send(models.StreamChunk{ToolCalls: collectToolCalls(toolCallAccumulator)}) {
				return
			}
		}
		send(models.StreamChunk{FinishReason: finishReason, Usage: usage})
	}()

	return respChan, errChan
}

// createRequest builds the go-openai request body
func (o *OpenAI_Model) createRequest(request models.CompletionRequest, stream bool) goopenai.ChatCompletionRequest {
	model := request.Model
	if model == "" {
		model = o.Model
	}
	if model == "" {
		model = DefaultModel
	}

	req := goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: ConvertMessages(request.Messages),
		Stream:   stream,
	}
	if stream {
		req.StreamOptions = &goopenai.StreamOptions{IncludeUsage: true}
	}
	if request.Temperature != nil {
		req.Temperature = float32(*request.Temperature)
	}
	if request.MaxTokens != nil {
		req.MaxTokens = *request.MaxTokens
	}
	return req
}

// ConvertMessages maps provider-neutral messages onto the chat-completions schema.
func ConvertMessages(messages []models.ProviderMessage) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))

	for _, m := range messages {
		if m.Role == models.RoleTool {
			out = append(out, goopenai.ChatCompletionMessage{
				Role:       goopenai.ChatMessageRoleTool,
				Content:    m.Text(),
				ToolCallID: m.ToolCallID,
			})
			continue
		}

		msg := goopenai.ChatCompletionMessage{Role: m.Role}
		parts := make([]goopenai.ChatMessagePart, 0, len(m.Content))
		for _, part := range m.Content {
			switch part.Type {
			case models.PartTypeText:
				parts = append(parts, goopenai.ChatMessagePart{
					Type: goopenai.ChatMessagePartTypeText,
					Text: part.Text,
				})
			case models.PartTypeImageURL:
				parts = append(parts, goopenai.ChatMessagePart{
					Type:     goopenai.ChatMessagePartTypeImageURL,
					ImageURL: &goopenai.ChatMessageImageURL{URL: part.ImageURL},
				})
			}
		}
		msg.MultiContent = parts

		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, goopenai.ToolCall{
				ID:   tc.ID,
				Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}

		out = append(out, msg)
	}

	return out
}

func collectToolCalls(acc map[int]*models.ToolCall) []models.ToolCall {
	indexes := make([]int, 0, len(acc))
	for idx := range acc {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

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

func mapFinishReason(reason goopenai.FinishReason) string {
	switch reason {
	case goopenai.FinishReasonStop:
		return models.FinishStop
	case goopenai.FinishReasonLength:
		return models.FinishLength
	case goopenai.FinishReasonToolCalls, goopenai.FinishReasonFunctionCall:
		return models.FinishToolCalls
	case goopenai.FinishReasonContentFilter:
		return "content-filter"
	default:
		log.Debug().Str("finish_reason", string(reason)).Msg("unmapped finish reason")
		return models.FinishUnknown
	}
}

// headerTransport adds fixed headers (OpenRouter attribution) to every request.
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}
	return t.base.RoundTrip(clone)
}
