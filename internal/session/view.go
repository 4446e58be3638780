package session

import (
	"context"
	"errors"
	"sync"

	"docassist-backend/internal/document"
	"docassist-backend/internal/model"
	"docassist-backend/pkg/logger"
)

var ErrNoDocument = errors.New("no document selected")

// Backend is the part of the HTTP contract a session needs. *client.Client implements it.
type Backend interface {
	FetchDocument(ctx context.Context, id string) (*model.DocumentResponse, error)
	SaveDocument(ctx context.Context, id, content string) (*model.SaveDocumentResponse, error)
	Chat(ctx context.Context, messages []model.ChatMessage, documentContent string) (*model.ChatResponse, error)
}

// View holds the current document and its loading state.
type View struct {
	backend Backend

	mu       sync.Mutex
	current  *model.Document
	baseline string
	loading  bool
}

func NewView(backend Backend) *View {
	return &View{backend: backend}
}

// Select fetches id and makes it the current document. On failure the previous document stays
// current; the error is logged and returned for display.
func (v *View) Select(ctx context.Context, id string) error {
	v.setLoading(true)
	defer v.setLoading(false)

	resp, err := v.backend.FetchDocument(ctx, id)
	if err != nil {
		logger.Errorf("Failed to load document %s: %v", id, err)
		return err
	}

	doc := &model.Document{
		ID:      id,
		Title:   resp.Title,
		Content: resp.Content,
	}
	if resp.LastModified != nil {
		doc.LastModified = *resp.LastModified
	}

	v.mu.Lock()
	v.current = doc
	v.baseline = doc.Content
	v.mu.Unlock()

	logger.Infof("Loaded document %s", id)
	return nil
}

// Save sends the edited content of the current document to the backend.
func (v *View) Save(ctx context.Context) error {
	v.mu.Lock()
	if v.current == nil {
		v.mu.Unlock()
		return ErrNoDocument
	}
	id, content := v.current.ID, v.current.Content
	v.mu.Unlock()

	v.setLoading(true)
	defer v.setLoading(false)

	resp, err := v.backend.SaveDocument(ctx, id, content)
	if err != nil {
		logger.Errorf("Failed to save document %s: %v", id, err)
		return err
	}

	v.mu.Lock()
	if v.current != nil && v.current.ID == id {
		v.current.LastModified = resp.LastModified
		v.baseline = content
	}
	v.mu.Unlock()

	logger.Infof("Saved document %s", id)
	return nil
}

func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Current returns a copy of the current document, or nil.
func (v *View) Current() *model.Document {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return nil
	}
	doc := *v.current
	return &doc
}

// Content is the current document's content, empty when none is selected.
func (v *View) Content() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return ""
	}
	return v.current.Content
}

// SetContent records a local edit.
func (v *View) SetContent(content string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return ErrNoDocument
	}
	v.current.Content = content
	return nil
}

// Dirty reports whether the content differs from the last fetched or saved revision.
func (v *View) Dirty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current != nil && v.current.Content != v.baseline
}

// Changes lists the block-level differences against the last fetched or saved revision.
func (v *View) Changes() []document.DiffLine {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return nil
	}
	return document.Diff(v.baseline, v.current.Content)
}

func (v *View) setLoading(loading bool) {
	v.mu.Lock()
	v.loading = loading
	v.mu.Unlock()
}
