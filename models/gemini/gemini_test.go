package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	models "github.com/Desarso/deckchat/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestModelRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"[\"a\","},{"text":"\"b\"]"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":2}}`)
	}))
	t.Cleanup(server.Close)
	t.Setenv("TEST_GEMINI_KEY", "g-test")

	model := New(WithBaseURL(server.URL), WithAPIKeyEnv("TEST_GEMINI_KEY"), WithModel("gemini-test"))
	text, err := model.Model_Request(context.Background(), models.CompletionRequest{
		Messages: []models.ProviderMessage{models.SystemMessage("topics only"), models.UserMessage("TEXT:\nslides")},
	})

	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, text)
}

func TestConvertMessages(t *testing.T) {
	system, contents := ConvertMessages([]models.ProviderMessage{
		models.SystemMessage("be brief"),
		{Role: models.RoleUser, Content: []models.ContentPart{
			models.TextPart("look"),
			models.ImagePart("data:image/png;base64,aGVsbG8="),
			models.ImagePart("https://example.com/chart.png?x=1"),
		}},
		{Role: models.RoleAssistant, Content: []models.ContentPart{models.TextPart("")}, ToolCalls: []models.ToolCall{
			{ID: "c1", Name: "lookup", Arguments: `{"q":"x"}`},
		}},
		{Role: models.RoleTool, Content: []models.ContentPart{models.TextPart(`[1,2]`)}, ToolCallID: "c1"},
		models.UserMessage("thanks"),
	})

	require.NotNil(t, system)
	require.Len(t, system.Parts, 1)
	assert.Equal(t, "be brief", system.Parts[0].Text)

	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	require.Len(t, contents[0].Parts, 3)
	require.NotNil(t, contents[0].Parts[1].InlineData)
	assert.Equal(t, []byte("hello"), contents[0].Parts[1].InlineData.Data)
	require.NotNil(t, contents[0].Parts[2].FileData)
	assert.Equal(t, "image/png", contents[0].Parts[2].FileData.MIMEType)

	assert.Equal(t, genai.RoleModel, contents[1].Role)
	require.Len(t, contents[1].Parts, 1)
	assert.Equal(t, map[string]any{"q": "x"}, contents[1].Parts[0].FunctionCall.Args)

	// the tool response and the following user turn share one user content
	assert.Equal(t, genai.RoleUser, contents[2].Role)
	require.Len(t, contents[2].Parts, 2)
	resp := contents[2].Parts[0].FunctionResponse
	require.NotNil(t, resp)
	assert.Equal(t, "lookup", resp.Name)
	assert.Equal(t, map[string]any{"result": []any{float64(1), float64(2)}}, resp.Response)
	assert.Equal(t, "thanks", contents[2].Parts[1].Text)
}

func TestConvertMessages_NoSystem(t *testing.T) {
	system, contents := ConvertMessages([]models.ProviderMessage{models.UserMessage("hi")})
	assert.Nil(t, system)
	assert.Len(t, contents, 1)
}

func TestMapFinishReason(t *testing.T) {
	assert.Equal(t, models.FinishStop, mapFinishReason(genai.FinishReasonStop))
	assert.Equal(t, models.FinishLength, mapFinishReason(genai.FinishReasonMaxTokens))
	assert.Equal(t, "content-filter", mapFinishReason(genai.FinishReasonSafety))
	assert.Equal(t, models.FinishUnknown, mapFinishReason(genai.FinishReason("OTHER_THING")))
}
