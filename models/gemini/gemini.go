package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	models "github.com/Desarso/deckchat/models"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const (
	DefaultModel     = "gemini-2.0-flash"
	DefaultAPIKeyEnv = "GEMINI_API_KEY"
	ProviderName     = "gemini"
)

type Option func(*Gemini_Model)

func WithModel(model string) Option {
	return func(g *Gemini_Model) { g.Model = model }
}

func WithBaseURL(baseURL string) Option {
	return func(g *Gemini_Model) { g.BaseURL = baseURL }
}

func WithAPIKeyEnv(env string) Option {
	return func(g *Gemini_Model) { g.APIKeyEnv = env }
}

// Gemini_Model implements models.Model on the Gemini API.
type Gemini_Model struct {
	Model     string `json:"model"`
	BaseURL   string `json:"base_url,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty"`

	mu     sync.Mutex
	client *genai.Client
}

func New(opts ...Option) *Gemini_Model {
	g := &Gemini_Model{Model: DefaultModel}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gemini_Model) Name() string {
	return ProviderName
}

func (g *Gemini_Model) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}

	apiKeyEnv := g.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = DefaultAPIKeyEnv
	}
	cfg := &genai.ClientConfig{
		APIKey:  os.Getenv(apiKeyEnv),
		Backend: genai.BackendGeminiAPI,
	}
	if g.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client
	return client, nil
}

func (g *Gemini_Model) Model_Request(ctx context.Context, request models.CompletionRequest) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", &models.ProviderError{Provider: ProviderName, Err: err}
	}

	contents, config := g.buildRequest(request)
	resp, err := client.Models.GenerateContent(ctx, g.modelName(request), contents, config)
	if err != nil {
		return "", &models.ProviderError{Provider: ProviderName, Err: err}
	}

	text, _ := responseParts(resp)
	return text, nil
}

func (g *Gemini_Model) Stream_Model_Request(ctx context.Context, request models.CompletionRequest) (<-chan models.StreamChunk, <-chan error) {
	respChan := make(chan models.StreamChunk)
	errChan := make(chan error, 1)

	go func() {
		defer close(respChan)
		defer close(errChan)

		client, err := g.getClient(ctx)
		if err != nil {
			errChan <- &models.ProviderError{Provider: ProviderName, Err: err}
			return
		}

		send := func(chunk models.StreamChunk) bool {
			select {
			case respChan <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		contents, config := g.buildRequest(request)
		var toolCalls []models.ToolCall
		var usage *models.Usage
		finishReason := models.FinishUnknown

		for resp, err := range client.Models.GenerateContentStream(ctx, g.modelName(request), contents, config) {
			if err != nil {
				errChan <- &models.ProviderError{Provider: ProviderName, Err: fmt.Errorf("error reading stream: %w", err)}
				return
			}

			text, calls := responseParts(resp)
			toolCalls = append(toolCalls, calls...)
			if text != "" && !send(models.StreamChunk{Text: text}) {
				return
			}

			if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
				finishReason = mapFinishReason(resp.Candidates[0].FinishReason)
			}
			if resp.UsageMetadata != nil {
				usage = &models.Usage{
					PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
					CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
				}
			}
		}

		if len(toolCalls) > 0 {
			if finishReason == models.FinishStop {
				finishReason = models.FinishToolCalls
			}
			if !send(models.StreamChunk{ToolCalls: toolCalls}) {
				return
			}
		}
		send(models.StreamChunk{FinishReason: finishReason, Usage: usage})
	}()

	return respChan, errChan
}

func (g *Gemini_Model) modelName(request models.CompletionRequest) string {
	if request.Model != "" {
		return request.Model
	}
	if g.Model != "" {
		return g.Model
	}
	return DefaultModel
}

func (g *Gemini_Model) buildRequest(request models.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	system, contents := ConvertMessages(request.Messages)

	config := &genai.GenerateContentConfig{SystemInstruction: system}
	if request.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*request.Temperature))
	}
	if request.MaxTokens != nil {
		config.MaxOutputTokens = int32(*request.MaxTokens)
	}
	return contents, config
}

// responseParts collects the text and function calls of the first candidate.
func responseParts(resp *genai.GenerateContentResponse) (string, []models.ToolCall) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	var calls []models.ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Thought {
			continue
		}
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			calls = append(calls, models.ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: marshalArgs(part.FunctionCall.Args),
			})
		}
	}
	return sb.String(), calls
}

func mapFinishReason(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonStop:
		return models.FinishStop
	case genai.FinishReasonMaxTokens:
		return models.FinishLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent:
		return "content-filter"
	default:
		log.Debug().Str("finish_reason", string(reason)).Msg("unmapped finish reason")
		return models.FinishUnknown
	}
}
