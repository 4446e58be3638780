package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	"docassist-backend/internal/model"
	"docassist-backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout of the fixed document set.
type SeedFile struct {
	Documents []model.Document `yaml:"documents"`
}

// LoadSeedFile reads the document set from path.
func LoadSeedFile(path string) ([]model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("%w: parse seed file: %v", ErrInvalidData, err)
	}

	seen := make(map[string]bool, len(seed.Documents))
	for _, doc := range seed.Documents {
		if doc.ID == "" {
			return nil, fmt.Errorf("%w: seed document without id", ErrInvalidData)
		}
		if seen[doc.ID] {
			return nil, fmt.Errorf("%w: duplicate seed document %q", ErrInvalidData, doc.ID)
		}
		seen[doc.ID] = true
	}
	return seed.Documents, nil
}

// Seed creates every document of docs that the store does not hold yet. Existing documents
// keep their saved content. It returns the number of documents created.
func Seed(store Storage, docs []model.Document) (int, error) {
	created := 0
	for _, doc := range docs {
		_, err := store.GetDocument(doc.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrDocumentNotFound) {
			return created, fmt.Errorf("check document %s: %w", doc.ID, err)
		}

		doc.LastModified = time.Now().UTC()
		if err := store.SaveDocument(&doc); err != nil {
			return created, fmt.Errorf("seed document %s: %w", doc.ID, err)
		}
		created++
	}

	logger.Infof("Seeded %d of %d documents", created, len(docs))
	return created, nil
}
