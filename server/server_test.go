package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Desarso/deckchat"
	"github.com/Desarso/deckchat/models"
	"github.com/Desarso/deckchat/testutil"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubModel struct {
	chunks []models.StreamChunk
	err    error
}

func (m *stubModel) Name() string { return "stub" }

func (m *stubModel) Model_Request(ctx context.Context, request models.CompletionRequest) (string, error) {
	return "", errors.New("offline")
}

func (m *stubModel) Stream_Model_Request(ctx context.Context, request models.CompletionRequest) (<-chan models.StreamChunk, <-chan error) {
	if m.err != nil {
		return models.FailedStream(m.err)
	}
	respChan := make(chan models.StreamChunk, len(m.chunks))
	errChan := make(chan error)
	for _, c := range m.chunks {
		respChan <- c
	}
	close(respChan)
	close(errChan)
	return respChan, errChan
}

func newTestRouter(t *testing.T, model models.Model) *gin.Engine {
	t.Helper()
	g, err := deckchat.NewGateway(deckchat.NewConfig().WithChatModel("chat-test").WithAllowedOrigins("http://localhost:3000"), model)
	require.NoError(t, err)
	return NewRouter(g)
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestChat_StreamsWithDataStreamHeader(t *testing.T) {
	router := newTestRouter(t, &stubModel{chunks: []models.StreamChunk{
		{Text: "Hi"},
		{FinishReason: models.FinishStop},
	}})

	w := doJSON(router, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hello"}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v1", w.Header().Get("x-vercel-ai-data-stream"))
	assert.Contains(t, w.Body.String(), "0:\"Hi\"\n")
	assert.Contains(t, w.Body.String(), `d:{"finishReason":"stop"`)
}

func TestChat_TextProtocol(t *testing.T) {
	router := newTestRouter(t, &stubModel{chunks: []models.StreamChunk{{Text: "Hi"}, {Text: "!"}, {FinishReason: models.FinishStop}}})

	w := doJSON(router, http.MethodPost, "/api/chat?protocol=text", `{"messages":[{"role":"user","content":"hello"}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v1", w.Header().Get("x-vercel-ai-data-stream"))
	assert.Equal(t, "Hi!", w.Body.String())
}

func TestChat_UnknownProtocol(t *testing.T) {
	router := newTestRouter(t, &stubModel{})

	w := doJSON(router, http.MethodPost, "/api/chat?protocol=sse", `{"messages":[]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w), "unknown stream protocol")
}

func TestChat_ProviderFailsBeforeStreaming(t *testing.T) {
	router := newTestRouter(t, &stubModel{err: errors.New("invalid api key")})

	w := doJSON(router, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"hello"}]}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, errorBody(t, w), "invalid api key")
	assert.Empty(t, w.Header().Get("x-vercel-ai-data-stream"))
}

func TestChat_MalformedBody(t *testing.T) {
	router := newTestRouter(t, &stubModel{})
	w := doJSON(router, http.MethodPost, "/api/chat", `{"messages":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPresentationMeta_RejectsNonPDFDataURL(t *testing.T) {
	router := newTestRouter(t, &stubModel{})

	w := doJSON(router, http.MethodPost, "/api/presentation_meta", `{"pdf_data_url":"data:image/png;base64,AAAA"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid PDF data URL", errorBody(t, w))
}

func TestPresentationMeta_MissingField(t *testing.T) {
	router := newTestRouter(t, &stubModel{})

	w := doJSON(router, http.MethodPost, "/api/presentation_meta", `{"filename":"deck.pdf"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, errorBody(t, w))
}

func TestPresentationMeta_UnparseablePDF(t *testing.T) {
	router := newTestRouter(t, &stubModel{})
	body := `{"pdf_data_url":"data:application/pdf;base64,` + base64.StdEncoding.EncodeToString([]byte("definitely not a pdf")) + `"}`

	w := doJSON(router, http.MethodPost, "/api/presentation_meta", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.HasPrefix(errorBody(t, w), "Failed to parse PDF: "))
}

func TestPresentationMeta_ModelOfflineUsesSlideLines(t *testing.T) {
	router := newTestRouter(t, &stubModel{})
	pdf := testutil.BuildPDF("", "Intro to Systems", "Scaling Strategies", "Caching Layers")
	body := `{"pdf_data_url":"data:application/pdf;base64,` + base64.StdEncoding.EncodeToString(pdf) + `","filename":"deck.pdf"}`

	w := doJSON(router, http.MethodPost, "/api/presentation_meta", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var meta models.DeckMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, "Intro to Systems", meta.Title)
	require.Len(t, meta.SuggestedActions, 2)
	assert.Equal(t, "Scaling Strategies", meta.SuggestedActions[0].Title)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &stubModel{})

	w := doJSON(router, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","provider":"stub","model":"chat-test"}`, w.Body.String())
}

func TestSwaggerDoc(t *testing.T) {
	router := newTestRouter(t, &stubModel{})

	w := doJSON(router, http.MethodGet, "/swagger/doc.json", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/api/presentation_meta"`)
}

func TestCORS(t *testing.T) {
	router := newTestRouter(t, &stubModel{})

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestChatWebSocket(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t, &stubModel{chunks: []models.StreamChunk{{Text: "yo"}, {FinishReason: models.FinishStop}}}))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/api/chat/ws?protocol=text", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"messages":[{"role":"user","content":"hi"}]}`)))

	_, first, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "yo", string(first))

	_, done, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"done"}`, string(done))
}
