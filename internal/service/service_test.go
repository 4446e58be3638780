package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"docassist-backend/internal/assistant"
	"docassist-backend/internal/diagram"
	"docassist-backend/internal/markdown"
	"docassist-backend/internal/model"
	"docassist-backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssistant struct {
	reply      *assistant.ChatReply
	review     *model.ReviewResult
	err        error
	history    []model.ChatMessage
	document   string
	reviewText string
}

func (f *fakeAssistant) ChatWithDocument(_ context.Context, history []model.ChatMessage, documentHTML string) (*assistant.ChatReply, error) {
	f.history = history
	f.document = documentHTML
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeAssistant) Review(_ context.Context, plainText string) (*model.ReviewResult, error) {
	f.reviewText = plainText
	if f.err != nil {
		return nil, f.err
	}
	return f.review, nil
}

func newTestDocuments(t *testing.T) *DocumentService {
	t.Helper()
	store := storage.NewMemoryStorage()
	_, err := storage.Seed(store, []model.Document{
		{ID: "doc1", Title: "Hinge", Content: "<p>one</p><p>two</p>"},
		{ID: "doc2", Title: "Lid", Content: "<p>lid</p>"},
	})
	require.NoError(t, err)
	return NewDocumentService(store)
}

func TestDocumentServiceSaveThenGet(t *testing.T) {
	svc := newTestDocuments(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	resp, err := svc.Save("doc1", "<p>one</p><p>2</p><p>three</p>")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, fixed, resp.LastModified)
	assert.Equal(t, model.Changes{Added: 2, Removed: 1}, resp.Changes)

	doc, err := svc.Get("doc1")
	require.NoError(t, err)
	assert.Equal(t, "<p>one</p><p>2</p><p>three</p>", doc.Content)
	assert.Equal(t, "Hinge", doc.Title)
	assert.Equal(t, fixed, doc.LastModified)
}

func TestDocumentServiceUnknownID(t *testing.T) {
	svc := newTestDocuments(t)

	_, err := svc.Get("doc9")
	assert.ErrorIs(t, err, ErrUnknownDocument)

	_, err = svc.Save("doc9", "<p>x</p>")
	assert.ErrorIs(t, err, ErrUnknownDocument)

	_, err = svc.Get("doc2")
	assert.NoError(t, err)
}

func TestDocumentServiceList(t *testing.T) {
	svc := newTestDocuments(t)

	list, err := svc.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "doc1", list[0].ID)
	assert.Equal(t, "Lid", list[1].Title)
}

func TestChatServiceChat(t *testing.T) {
	fake := &fakeAssistant{reply: &assistant.ChatReply{
		Text: "Here is the flow:\n\n```mermaid\ngraph TD\nA-->B\n```\n",
		Insertions: []model.DiagramInsertion{
			{InsertAfterText: "one", MermaidSyntax: "graph TD\nA-->B", DiagramType: "flowchart"},
		},
	}}
	svc := NewChatService(fake, markdown.New(), diagram.NewRenderer(0))

	req := &model.ChatRequest{
		Messages:               []model.ChatMessage{{Role: model.RoleUser, Content: "draw it"}},
		CurrentDocumentContent: "<p>one</p>",
	}
	resp, err := svc.Chat(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, fake.reply.Text, resp.Response)
	assert.Contains(t, resp.ResponseHTML, "Here is the flow:")
	require.Len(t, resp.Diagrams, 1)
	assert.Equal(t, "flowchart", resp.Diagrams[0].Kind)
	assert.Empty(t, resp.Diagrams[0].Error)
	assert.Equal(t, fake.reply.Insertions, resp.DiagramInsertions)
	assert.Equal(t, "<p>one</p>", fake.document)
	assert.Len(t, fake.history, 1)
}

func TestChatServiceErrors(t *testing.T) {
	fake := &fakeAssistant{err: errors.New("connection refused")}
	svc := NewChatService(fake, markdown.New(), diagram.NewRenderer(0))

	_, err := svc.Chat(context.Background(), &model.ChatRequest{})
	assert.ErrorIs(t, err, ErrEmptyConversation)

	_, err = svc.Chat(context.Background(), &model.ChatRequest{
		Messages: []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestChatServiceRenderDiagram(t *testing.T) {
	svc := NewChatService(&fakeAssistant{}, markdown.New(), diagram.NewRenderer(0))

	ok := svc.RenderDiagram("graph LR\nA-->B", "Flow")
	assert.Equal(t, "flowchart", ok.Kind)
	assert.Equal(t, "Flow", ok.Title)
	assert.Empty(t, ok.Error)

	bad := svc.RenderDiagram("not a diagram", "")
	assert.NotEmpty(t, bad.Error)
	assert.Contains(t, bad.HTML, "diagram-error")
}

func collectEvents(ch <-chan model.ReviewEvent) []model.ReviewEvent {
	var events []model.ReviewEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func eventTypes(events []model.ReviewEvent) []string {
	types := make([]string, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	return types
}

func TestReviewServiceSuggestions(t *testing.T) {
	fake := &fakeAssistant{review: &model.ReviewResult{
		Issues:            []model.Suggestion{{Type: "Grammar", Severity: "low"}},
		DiagramInsertions: []model.DiagramInsertion{},
	}}
	svc := NewReviewService(fake, 1000)

	events := collectEvents(svc.Review(context.Background(), "<p>1. A device comprising a lid.</p>"))

	assert.Equal(t, []string{model.ReviewProcessingStart, model.ReviewSuggestions}, eventTypes(events))
	assert.Equal(t, fake.review, events[1].Data)
	assert.Equal(t, "1. A device comprising a lid.", fake.reviewText)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestReviewServiceValidationAndFailure(t *testing.T) {
	svc := NewReviewService(&fakeAssistant{}, 10)

	events := collectEvents(svc.Review(context.Background(), "<p>   </p>"))
	assert.Equal(t, []string{model.ReviewProcessingStart, model.ReviewValidationError}, eventTypes(events))

	events = collectEvents(svc.Review(context.Background(), "<p>this text is far too long</p>"))
	assert.Equal(t, []string{model.ReviewProcessingStart, model.ReviewValidationError}, eventTypes(events))

	failing := NewReviewService(&fakeAssistant{err: errors.New("timeout")}, 1000)
	events = collectEvents(failing.Review(context.Background(), "<p>claim</p>"))
	require.Equal(t, []string{model.ReviewProcessingStart, model.ReviewAIError}, eventTypes(events))
	assert.Contains(t, events[1].Message, "timeout")
}
