package storage

import (
	"sort"
	"sync"

	"docassist-backend/internal/model"
)

type MemoryStorage struct {
	documents map[string]*model.Document
	mu        sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		documents: make(map[string]*model.Document),
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) Backup() error {
	return nil
}

func (m *MemoryStorage) GetDocument(id string) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, exists := m.documents[id]
	if !exists {
		return nil, ErrDocumentNotFound
	}

	copied := *doc
	return &copied, nil
}

func (m *MemoryStorage) SaveDocument(doc *model.Document) error {
	if doc == nil || doc.ID == "" {
		return ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *doc
	m.documents[doc.ID] = &copied
	return nil
}

func (m *MemoryStorage) ListDocuments() ([]*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]*model.Document, 0, len(m.documents))
	for _, doc := range m.documents {
		copied := *doc
		docs = append(docs, &copied)
	}
	sortByID(docs)

	return docs, nil
}

func sortByID(docs []*model.Document) {
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})
}
