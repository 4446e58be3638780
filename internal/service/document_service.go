package service

import (
	"errors"
	"fmt"
	"time"

	"docassist-backend/internal/document"
	"docassist-backend/internal/model"
	"docassist-backend/internal/storage"
	"docassist-backend/pkg/logger"
)

// ErrUnknownDocument is returned for ids outside the fixed document set.
var ErrUnknownDocument = errors.New("unknown document")

type DocumentService struct {
	storage storage.Storage
	now     func() time.Time
}

func NewDocumentService(store storage.Storage) *DocumentService {
	return &DocumentService{
		storage: store,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *DocumentService) Get(id string) (*model.Document, error) {
	doc, err := s.storage.GetDocument(id)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, id)
		}
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

// Save replaces the content of an existing document and reports the block-level changes
// against the previously stored revision.
func (s *DocumentService) Save(id, content string) (*model.SaveDocumentResponse, error) {
	doc, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	stats := document.Stats(document.Diff(doc.Content, content))
	doc.Content = content
	doc.LastModified = s.now()

	if err := s.storage.SaveDocument(doc); err != nil {
		return nil, fmt.Errorf("save document %s: %w", id, err)
	}

	logger.WithFields(map[string]interface{}{
		"document": id,
		"added":    stats.Added,
		"removed":  stats.Removed,
	}).Info("Document saved")

	return &model.SaveDocumentResponse{
		Status:       "ok",
		LastModified: doc.LastModified,
		Changes:      model.Changes{Added: stats.Added, Removed: stats.Removed},
	}, nil
}

func (s *DocumentService) List() ([]model.DocumentSummary, error) {
	docs, err := s.storage.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	summaries := make([]model.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, model.DocumentSummary{
			ID:           doc.ID,
			Title:        doc.Title,
			LastModified: doc.LastModified,
		})
	}
	return summaries, nil
}
