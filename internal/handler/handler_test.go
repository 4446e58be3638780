package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"docassist-backend/internal/assistant"
	"docassist-backend/internal/diagram"
	"docassist-backend/internal/markdown"
	"docassist-backend/internal/model"
	"docassist-backend/internal/service"
	"docassist-backend/internal/storage"
	"docassist-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type stubAssistant struct {
	reply  *assistant.ChatReply
	review *model.ReviewResult
}

func (s *stubAssistant) ChatWithDocument(context.Context, []model.ChatMessage, string) (*assistant.ChatReply, error) {
	return s.reply, nil
}

func (s *stubAssistant) Review(context.Context, string) (*model.ReviewResult, error) {
	return s.review, nil
}

func setupTestRouter(t *testing.T, a service.Assistant) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryStorage()
	_, err := storage.Seed(store, []model.Document{
		{ID: "doc1", Title: "Hinge", Content: "<p>A hinge with a pin.</p>"},
		{ID: "doc2", Title: "Lid", Content: "<p>A lid.</p>"},
	})
	require.NoError(t, err)

	documents := service.NewDocumentService(store)
	h := &Handlers{
		Documents: NewDocumentHandler(documents),
		Chat:      NewChatHandler(service.NewChatService(a, markdown.New(), diagram.NewRenderer(0))),
		Review:    NewReviewHandler(documents, service.NewReviewService(a, 1000)),
	}

	router := gin.New()
	h.Register(router.Group("/api"))
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSaveThenFetch(t *testing.T) {
	router := setupTestRouter(t, &stubAssistant{})
	content := `<p>A hinge with a pin.</p><div data-type="mermaid-diagram" data-syntax="graph TD; A--&gt;B" data-title="Flow"></div><p></p>`

	w := doJSON(router, http.MethodPost, "/api/documents/doc1/save", model.SaveDocumentRequest{Content: content})
	require.Equal(t, http.StatusOK, w.Code)

	var saved model.SaveDocumentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Equal(t, "ok", saved.Status)
	assert.Equal(t, 2, saved.Changes.Added)

	w = doJSON(router, http.MethodGet, "/api/documents/doc1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched model.DocumentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, content, fetched.Content)
	assert.Equal(t, "Hinge", fetched.Title)
	require.NotNil(t, fetched.LastModified)
	assert.True(t, fetched.LastModified.Equal(saved.LastModified))
}

func TestDocumentNotFound(t *testing.T) {
	router := setupTestRouter(t, &stubAssistant{})

	w := doJSON(router, http.MethodGet, "/api/documents/doc7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPost, "/api/documents/doc7/save", model.SaveDocumentRequest{Content: "<p>x</p>"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestListDocuments(t *testing.T) {
	router := setupTestRouter(t, &stubAssistant{})

	w := doJSON(router, http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Documents []model.DocumentSummary `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Documents, 2)
	assert.Equal(t, "doc1", body.Documents[0].ID)
}

func TestChat(t *testing.T) {
	stub := &stubAssistant{reply: &assistant.ChatReply{
		Text: "Added a diagram.",
		Insertions: []model.DiagramInsertion{
			{InsertAfterText: "pin", MermaidSyntax: "graph TD; A-->B", DiagramType: "flowchart", Title: "Flow"},
		},
	}}
	router := setupTestRouter(t, stub)

	w := doJSON(router, http.MethodPost, "/api/chat", model.ChatRequest{
		Messages:               []model.ChatMessage{{Role: model.RoleUser, Content: "add a diagram"}},
		CurrentDocumentContent: "<p>A hinge with a pin.</p>",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Added a diagram.", resp.Response)
	assert.Equal(t, stub.reply.Insertions, resp.DiagramInsertions)
	assert.Contains(t, w.Body.String(), `"insert_after_text":"pin"`)
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	router := setupTestRouter(t, &stubAssistant{})

	w := doJSON(router, http.MethodPost, "/api/chat", model.ChatRequest{Messages: []model.ChatMessage{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/chat", map[string]interface{}{
		"messages": []map[string]string{{"role": "robot", "content": "hi"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderDiagram(t *testing.T) {
	router := setupTestRouter(t, &stubAssistant{})

	w := doJSON(router, http.MethodPost, "/api/diagrams/render", model.RenderDiagramRequest{MermaidSyntax: "pie\n\"a\" : 1", Title: "Share"})
	require.Equal(t, http.StatusOK, w.Code)

	var d model.Diagram
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, "pie", d.Kind)
	assert.Equal(t, "Share", d.Title)

	w = doJSON(router, http.MethodPost, "/api/diagrams/render", model.RenderDiagramRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamReview(t *testing.T) {
	stub := &stubAssistant{review: &model.ReviewResult{
		Issues:            []model.Suggestion{{Type: "Clarity", Severity: "medium", OriginalText: "pin"}},
		DiagramInsertions: []model.DiagramInsertion{},
	}}
	router := setupTestRouter(t, stub)

	w := doJSON(router, http.MethodPost, "/api/documents/doc1/review", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	start := strings.Index(body, "event: processing_start")
	suggestions := strings.Index(body, "event: ai_suggestions")
	done := strings.Index(body, "event: done")
	require.True(t, start >= 0 && suggestions > start && done > suggestions, body)
	assert.Contains(t, body, `"originalText":"pin"`)
}

func TestStreamReviewUnknownDocument(t *testing.T) {
	router := setupTestRouter(t, &stubAssistant{})

	w := doJSON(router, http.MethodPost, "/api/documents/doc7/review", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
