package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"docassist-backend/internal/model"
	"docassist-backend/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend keeps document content in memory and answers the backend routes.
type stubBackend struct {
	mu       sync.Mutex
	contents map[string]string
	chatReq  model.ChatRequest
}

func (s *stubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/documents":
		json.NewEncoder(w).Encode(map[string]interface{}{
			"documents": []model.DocumentSummary{{ID: "doc1", Title: "Hinge"}},
		})
	case r.Method == http.MethodGet && r.URL.Path == "/api/documents/doc1":
		json.NewEncoder(w).Encode(model.DocumentResponse{Content: s.contents["doc1"]})
	case r.Method == http.MethodPost && r.URL.Path == "/api/documents/doc1/save":
		var req model.SaveDocumentRequest
		json.NewDecoder(r.Body).Decode(&req)
		s.contents["doc1"] = req.Content
		json.NewEncoder(w).Encode(model.SaveDocumentResponse{Status: "ok", LastModified: time.Now().UTC()})
	case r.Method == http.MethodPost && r.URL.Path == "/api/chat":
		json.NewDecoder(r.Body).Decode(&s.chatReq)
		json.NewEncoder(w).Encode(model.ChatResponse{
			Response: "done",
			DiagramInsertions: []model.DiagramInsertion{
				{InsertAfterText: "lid", MermaidSyntax: "graph TD; A-->B", DiagramType: "flowchart"},
			},
		})
	case r.Method == http.MethodPost && r.URL.Path == "/api/documents/doc1/review":
		sw := utils.NewSSEWriter(w)
		sw.WriteJSON(model.ReviewProcessingStart, model.ReviewEvent{Type: model.ReviewProcessingStart})
		sw.WriteJSON("heartbeat", map[string]int64{"timestamp": 1})
		sw.WriteJSON(model.ReviewSuggestions, model.ReviewEvent{
			Type: model.ReviewSuggestions,
			Data: &model.ReviewResult{Issues: []model.Suggestion{{Type: "Grammar"}}},
		})
		sw.Close()
	default:
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "unknown document"})
	}
}

func newStub(t *testing.T) (*stubBackend, *Client) {
	t.Helper()
	stub := &stubBackend{contents: map[string]string{"doc1": "<p>old</p>"}}
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)
	return stub, New(server.URL+"/", 0)
}

func TestSaveThenFetch(t *testing.T) {
	_, c := newStub(t)
	ctx := context.Background()

	saved, err := c.SaveDocument(ctx, "doc1", "<p>new content</p>")
	require.NoError(t, err)
	assert.Equal(t, "ok", saved.Status)

	doc, err := c.FetchDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, "<p>new content</p>", doc.Content)
}

func TestFetchUnknownDocument(t *testing.T) {
	_, c := newStub(t)

	_, err := c.FetchDocument(context.Background(), "doc9")
	require.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "unknown document")
}

func TestListDocuments(t *testing.T) {
	_, c := newStub(t)

	docs, err := c.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Hinge", docs[0].Title)
}

func TestChat(t *testing.T) {
	stub, c := newStub(t)
	history := []model.ChatMessage{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
		{Role: model.RoleUser, Content: "add a diagram"},
	}

	resp, err := c.Chat(context.Background(), history, "<p>a lid</p>")
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Response)
	require.Len(t, resp.DiagramInsertions, 1)
	assert.Equal(t, "lid", resp.DiagramInsertions[0].InsertAfterText)

	assert.Equal(t, history, stub.chatReq.Messages)
	assert.Equal(t, "<p>a lid</p>", stub.chatReq.CurrentDocumentContent)
}

func TestReview(t *testing.T) {
	_, c := newStub(t)

	var events []model.ReviewEvent
	err := c.Review(context.Background(), "doc1", "", func(ev model.ReviewEvent) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.ReviewProcessingStart, events[0].Type)
	assert.Equal(t, model.ReviewSuggestions, events[1].Type)
	require.NotNil(t, events[1].Data)
	assert.Equal(t, "Grammar", events[1].Data.Issues[0].Type)
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	c := New(server.URL, time.Second)

	_, err := c.FetchDocument(context.Background(), "doc1")
	assert.Error(t, err)
}
