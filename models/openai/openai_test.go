package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	models "github.com/Desarso/deckchat/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, handler http.HandlerFunc) *OpenAI_Model {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	return New(WithBaseURL(server.URL+"/v1"), WithAPIKeyEnv("TEST_OPENAI_KEY"), WithSite("https://deck.example", "Deck Chat"))
}

func drain(respChan <-chan models.StreamChunk, errChan <-chan error) ([]models.StreamChunk, error) {
	var chunks []models.StreamChunk
	for chunk := range respChan {
		chunks = append(chunks, chunk)
	}
	return chunks, <-errChan
}

func TestModelRequest(t *testing.T) {
	var body map[string]any
	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "https://deck.example", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Deck Chat", r.Header.Get("X-Title"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"title\":\"A\"}"},"finish_reason":"stop"}]}`)
	})

	temp := 0.2
	text, err := model.Model_Request(context.Background(), models.CompletionRequest{
		Model:       "gpt-test",
		Messages:    []models.ProviderMessage{models.SystemMessage("be strict"), models.UserMessage("TEXT")},
		Temperature: &temp,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"title":"A"}`, text)
	assert.Equal(t, "gpt-test", body["model"])
	assert.InDelta(t, 0.2, body["temperature"], 0.0001)
}

func TestModelRequest_APIError(t *testing.T) {
	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})

	_, err := model.Model_Request(context.Background(), models.CompletionRequest{Messages: []models.ProviderMessage{models.UserMessage("hi")}})

	var providerErr *models.ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, ProviderName, providerErr.Provider)
}

func TestStreamModelRequest(t *testing.T) {
	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}`,
			`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"lo"}}]}`,
			`{"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
			`{"id":"1","object":"chat.completion.chunk","choices":[],"usage":{"prompt_tokens":7,"completion_tokens":2,"total_tokens":9}}`,
		}
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	chunks, err := drain(model.Stream_Model_Request(context.Background(), models.CompletionRequest{
		Messages: []models.ProviderMessage{models.UserMessage("hi")},
	}))

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Hel", chunks[0].Text)
	assert.Equal(t, "lo", chunks[1].Text)
	assert.Equal(t, models.FinishStop, chunks[2].FinishReason)
	require.NotNil(t, chunks[2].Usage)
	assert.Equal(t, 7, chunks[2].Usage.PromptTokens)
	assert.Equal(t, 2, chunks[2].Usage.CompletionTokens)
}

func TestStreamModelRequest_ToolCallsAccumulate(t *testing.T) {
	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{
			`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"lookup","arguments":"{\"q\":"}}]}}]}`,
			`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"x\"}"}}]}}]}`,
			`{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
		}
		for _, c := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	chunks, err := drain(model.Stream_Model_Request(context.Background(), models.CompletionRequest{
		Messages: []models.ProviderMessage{models.UserMessage("hi")},
	}))

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Len(t, chunks[0].ToolCalls, 1)
	assert.Equal(t, models.ToolCall{ID: "call_1", Name: "lookup", Arguments: `{"q":"x"}`}, chunks[0].ToolCalls[0])
	assert.Equal(t, models.FinishToolCalls, chunks[1].FinishReason)
}

func TestStreamModelRequest_FailsBeforeStreaming(t *testing.T) {
	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	})

	chunks, err := drain(model.Stream_Model_Request(context.Background(), models.CompletionRequest{
		Messages: []models.ProviderMessage{models.UserMessage("hi")},
	}))

	assert.Empty(t, chunks)
	var providerErr *models.ProviderError
	require.ErrorAs(t, err, &providerErr)
}

func TestConvertMessages(t *testing.T) {
	out := ConvertMessages([]models.ProviderMessage{
		{Role: models.RoleUser, Content: []models.ContentPart{models.TextPart("look"), models.ImagePart("https://x/y.png")}},
		{Role: models.RoleAssistant, Content: []models.ContentPart{models.TextPart("")}, ToolCalls: []models.ToolCall{{ID: "c1", Name: "f", Arguments: `{"x":1}`}}},
		{Role: models.RoleTool, Content: []models.ContentPart{models.TextPart(`{"ok":true}`)}, ToolCallID: "c1"},
	})

	require.Len(t, out, 3)
	require.Len(t, out[0].MultiContent, 2)
	assert.Equal(t, "https://x/y.png", out[0].MultiContent[1].ImageURL.URL)
	require.Len(t, out[1].ToolCalls, 1)
	assert.Equal(t, `{"x":1}`, out[1].ToolCalls[0].Function.Arguments)
	assert.Equal(t, "tool", out[2].Role)
	assert.Equal(t, `{"ok":true}`, out[2].Content)
	assert.Equal(t, "c1", out[2].ToolCallID)
}
