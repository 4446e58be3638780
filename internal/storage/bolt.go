package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"docassist-backend/internal/model"
	"docassist-backend/pkg/logger"

	bolt "go.etcd.io/bbolt"
)

var documentsBucket = []byte("documents")

// BoltStorage stores documents as JSON values in a single bbolt bucket keyed by id.
type BoltStorage struct {
	path string
	db   *bolt.DB
}

func NewBoltStorage(path string) *BoltStorage {
	return &BoltStorage{path: path}
}

func (b *BoltStorage) Init() error {
	if dir := filepath.Dir(b.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageInit, err)
		}
	}

	db, err := bolt.Open(b.path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("%w: failed to open bolt db: %v", ErrStorageInit, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	b.db = db
	logger.Infof("Bolt storage initialized at %s", b.path)
	return nil
}

func (b *BoltStorage) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Backup writes a consistent snapshot of the database next to it.
func (b *BoltStorage) Backup() error {
	backupDir := filepath.Join(filepath.Dir(b.path), "backup")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	target := filepath.Join(backupDir, fmt.Sprintf("%s.%d", filepath.Base(b.path), time.Now().UnixNano()))
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.CopyFile(target, 0600)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	logger.Infof("Backup completed: %s", target)
	return nil
}

func (b *BoltStorage) GetDocument(id string) (*model.Document, error) {
	var doc *model.Document
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(documentsBucket)
		if bucket == nil {
			return ErrDocumentNotFound
		}

		v := bucket.Get([]byte(id))
		if v == nil {
			return ErrDocumentNotFound
		}

		doc = &model.Document{}
		if err := json.Unmarshal(v, doc); err != nil {
			return fmt.Errorf("%w: failed to unmarshal document: %v", ErrInvalidData, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (b *BoltStorage) SaveDocument(doc *model.Document) error {
	if doc == nil || doc.ID == "" {
		return ErrInvalidData
	}

	v, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal document: %v", ErrInvalidData, err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(documentsBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(doc.ID), v)
	})
}

// ListDocuments returns the documents in key order.
func (b *BoltStorage) ListDocuments() ([]*model.Document, error) {
	var docs []*model.Document
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(documentsBucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(_, v []byte) error {
			var doc model.Document
			if err := json.Unmarshal(v, &doc); err != nil {
				return fmt.Errorf("%w: failed to unmarshal document: %v", ErrInvalidData, err)
			}
			docs = append(docs, &doc)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
