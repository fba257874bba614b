package anthropic

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

func newTestModel(t *testing.T, handler http.HandlerFunc) *Anthropic_Model {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-ant-test")
	return New(WithBaseURL(server.URL), WithAPIKeyEnv("TEST_ANTHROPIC_KEY"), WithModel("claude-test"))
}

func TestModelRequest(t *testing.T) {
	var body map[string]any
	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test","content":[{"type":"text","text":"{\"title\":\"Deck\"}"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}}`)
	})

	text, err := model.Model_Request(context.Background(), models.CompletionRequest{
		Messages: []models.ProviderMessage{models.SystemMessage("strict json"), models.UserMessage("TEXT")},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"title":"Deck"}`, text)
	assert.Equal(t, "claude-test", body["model"])
	assert.EqualValues(t, DefaultMaxTokens, body["max_tokens"])
	system, ok := body["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
}

func TestStreamModelRequest(t *testing.T) {
	model := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		events := []struct{ name, data string }{
			{"message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-test","content":[],"stop_reason":null,"usage":{"input_tokens":11,"output_tokens":0}}}`},
			{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
			{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hi"}}`},
			{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" there"}}`},
			{"content_block_stop", `{"type":"content_block_stop","index":0}`},
			{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":5}}`},
			{"message_stop", `{"type":"message_stop"}`},
		}
		for _, e := range events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.name, e.data)
		}
	})

	respChan, errChan := model.Stream_Model_Request(context.Background(), models.CompletionRequest{
		Messages: []models.ProviderMessage{models.UserMessage("hi")},
	})
	var chunks []models.StreamChunk
	for chunk := range respChan {
		chunks = append(chunks, chunk)
	}

	require.NoError(t, <-errChan)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Hi", chunks[0].Text)
	assert.Equal(t, " there", chunks[1].Text)
	assert.Equal(t, models.FinishStop, chunks[2].FinishReason)
	require.NotNil(t, chunks[2].Usage)
	assert.Equal(t, 11, chunks[2].Usage.PromptTokens)
	assert.Equal(t, 5, chunks[2].Usage.CompletionTokens)
}

func TestConvertMessages_SystemAndToolGrouping(t *testing.T) {
	system, out := ConvertMessages([]models.ProviderMessage{
		models.SystemMessage("be brief"),
		models.UserMessage("weather?"),
		{Role: models.RoleAssistant, Content: []models.ContentPart{models.TextPart("")}, ToolCalls: []models.ToolCall{
			{ID: "c1", Name: "weather", Arguments: `{"city":"Oslo"}`},
			{ID: "c2", Name: "time", Arguments: `not json`},
		}},
		{Role: models.RoleTool, Content: []models.ContentPart{models.TextPart(`{"t":3}`)}, ToolCallID: "c1"},
		{Role: models.RoleTool, Content: []models.ContentPart{models.TextPart(`null`)}, ToolCallID: "c2"},
		models.UserMessage("thanks"),
	})

	require.Len(t, system, 1)
	assert.Equal(t, "be brief", system[0].Text)

	require.Len(t, out, 4)
	assert.EqualValues(t, "user", out[0].Role)

	assert.EqualValues(t, "assistant", out[1].Role)
	require.Len(t, out[1].Content, 2, "empty text part is dropped")
	require.NotNil(t, out[1].Content[0].OfToolUse)
	assert.Equal(t, "c1", out[1].Content[0].OfToolUse.ID)
	assert.Equal(t, json.RawMessage("{}"), out[1].Content[1].OfToolUse.Input)

	assert.EqualValues(t, "user", out[2].Role)
	require.Len(t, out[2].Content, 2)
	require.NotNil(t, out[2].Content[0].OfToolResult)
	assert.Equal(t, "c1", out[2].Content[0].OfToolResult.ToolUseID)
	assert.Equal(t, "c2", out[2].Content[1].OfToolResult.ToolUseID)

	assert.EqualValues(t, "user", out[3].Role)
}

func TestConvertMessages_Images(t *testing.T) {
	_, out := ConvertMessages([]models.ProviderMessage{{
		Role: models.RoleUser,
		Content: []models.ContentPart{
			models.TextPart("compare"),
			models.ImagePart("data:image/png;base64,aGVsbG8="),
			models.ImagePart("https://example.com/a.jpg"),
			models.ImagePart("data:image/png;base64,@@@"),
		},
	}})

	require.Len(t, out, 1)
	blocks := out[0].Content
	require.Len(t, blocks, 3)
	require.NotNil(t, blocks[1].OfImage)
	require.NotNil(t, blocks[1].OfImage.Source.OfBase64)
	assert.Equal(t, "aGVsbG8=", blocks[1].OfImage.Source.OfBase64.Data)
	require.NotNil(t, blocks[2].OfImage.Source.OfURL)
	assert.Equal(t, "https://example.com/a.jpg", blocks[2].OfImage.Source.OfURL.URL)
}

func TestMapStopReason(t *testing.T) {
	assert.Equal(t, models.FinishStop, mapStopReason("end_turn"))
	assert.Equal(t, models.FinishLength, mapStopReason("max_tokens"))
	assert.Equal(t, models.FinishToolCalls, mapStopReason("tool_use"))
	assert.Equal(t, models.FinishUnknown, mapStopReason("refusal"))
}
