package storage

import (
	"docassist-backend/internal/model"
)

// Storage persists the document set. Implementations return copies, so callers may modify
// what they get back.
type Storage interface {
	// documents
	GetDocument(id string) (*model.Document, error)
	SaveDocument(doc *model.Document) error
	// ListDocuments orders by id. Content may be left empty.
	ListDocuments() ([]*model.Document, error)

	// lifecycle
	Init() error
	Close() error
	Backup() error
}
