package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"docassist-backend/internal/model"
	"docassist-backend/pkg/logger"
)

// DiskStorage keeps one JSON file per document plus an index file, with a bounded in-memory
// cache in front.
type DiskStorage struct {
	dataDir   string
	mu        sync.RWMutex
	cache     map[string]*model.Document
	cacheSize int
}

type DocumentIndex struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LastModified time.Time `json:"last_modified"`
}

func NewDiskStorage(dataDir string, cacheSize int) *DiskStorage {
	if cacheSize <= 0 {
		cacheSize = 16
	}
	return &DiskStorage{
		dataDir:   dataDir,
		cache:     make(map[string]*model.Document),
		cacheSize: cacheSize,
	}
}

func (d *DiskStorage) Init() error {
	if err := d.createDirectories(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	if err := d.loadDocuments(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	logger.Info("Disk storage initialized successfully")
	return nil
}

func (d *DiskStorage) createDirectories() error {
	dirs := []string{
		d.dataDir,
		filepath.Join(d.dataDir, "documents"),
		filepath.Join(d.dataDir, "backup"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

func (d *DiskStorage) indexPath() string {
	return filepath.Join(d.dataDir, "documents.json")
}

func (d *DiskStorage) documentPath(id string) string {
	return filepath.Join(d.dataDir, "documents", id+".json")
}

// validID rejects ids that would escape the documents directory.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

func (d *DiskStorage) loadDocuments() error {
	if _, err := os.Stat(d.indexPath()); os.IsNotExist(err) {
		return d.saveIndex([]*DocumentIndex{})
	}

	indexes, err := d.readIndex()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, index := range indexes {
		if len(d.cache) >= d.cacheSize {
			break
		}

		doc, err := d.loadDocumentFromFile(index.ID)
		if err != nil {
			logger.Errorf("Failed to load document %s: %v", index.ID, err)
			continue
		}

		d.cache[index.ID] = doc
	}

	return nil
}

func (d *DiskStorage) readIndex() ([]*DocumentIndex, error) {
	data, err := os.ReadFile(d.indexPath())
	if err != nil {
		return nil, err
	}

	var indexes []*DocumentIndex
	if err := json.Unmarshal(data, &indexes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return indexes, nil
}

func (d *DiskStorage) loadDocumentFromFile(id string) (*model.Document, error) {
	data, err := os.ReadFile(d.documentPath(id))
	if err != nil {
		return nil, err
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return &doc, nil
}

// writeFileAtomic writes through a temp file and a rename so readers never see a partial file.
func writeFileAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

func (d *DiskStorage) saveIndex(indexes []*DocumentIndex) error {
	return writeFileAtomic(d.indexPath(), indexes)
}

// updateIndex rebuilds the index from the document files on disk.
func (d *DiskStorage) updateIndex() error {
	files, err := os.ReadDir(filepath.Join(d.dataDir, "documents"))
	if err != nil {
		return err
	}

	var indexes []*DocumentIndex
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}

		id := strings.TrimSuffix(file.Name(), ".json")
		doc, err := d.loadDocumentFromFile(id)
		if err != nil {
			logger.Warnf("Skipping unreadable document file %s: %v", file.Name(), err)
			continue
		}

		indexes = append(indexes, &DocumentIndex{
			ID:           doc.ID,
			Title:        doc.Title,
			LastModified: doc.LastModified,
		})
	}

	sort.Slice(indexes, func(i, j int) bool {
		return indexes[i].ID < indexes[j].ID
	})

	return d.saveIndex(indexes)
}

func (d *DiskStorage) GetDocument(id string) (*model.Document, error) {
	if !validID(id) {
		return nil, ErrDocumentNotFound
	}

	d.mu.RLock()
	if doc, exists := d.cache[id]; exists {
		copied := *doc
		d.mu.RUnlock()
		return &copied, nil
	}
	d.mu.RUnlock()

	doc, err := d.loadDocumentFromFile(id)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	d.mu.Lock()
	d.cache[id] = doc
	d.evictCache()
	d.mu.Unlock()

	copied := *doc
	return &copied, nil
}

func (d *DiskStorage) SaveDocument(doc *model.Document) error {
	if doc == nil || !validID(doc.ID) {
		return ErrInvalidData
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	copied := *doc
	if err := writeFileAtomic(d.documentPath(doc.ID), &copied); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	if err := d.updateIndex(); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	d.cache[doc.ID] = &copied
	d.evictCache()

	return nil
}

func (d *DiskStorage) ListDocuments() ([]*model.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	indexes, err := d.readIndex()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	docs := make([]*model.Document, 0, len(indexes))
	for _, index := range indexes {
		docs = append(docs, &model.Document{
			ID:           index.ID,
			Title:        index.Title,
			LastModified: index.LastModified,
		})
	}

	return docs, nil
}

// evictCache drops the least recently modified documents. Callers hold d.mu.
func (d *DiskStorage) evictCache() {
	if len(d.cache) <= d.cacheSize {
		return
	}

	type cacheEntry struct {
		id           string
		lastModified time.Time
	}

	var entries []cacheEntry
	for id, doc := range d.cache {
		entries = append(entries, cacheEntry{
			id:           id,
			lastModified: doc.LastModified,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].lastModified.Before(entries[j].lastModified)
	})

	toEvict := len(d.cache) - d.cacheSize
	for i := 0; i < toEvict; i++ {
		delete(d.cache, entries[i].id)
	}
}

func (d *DiskStorage) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cache = make(map[string]*model.Document)
	return nil
}

func (d *DiskStorage) Backup() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	backupDir := filepath.Join(d.dataDir, "backup", fmt.Sprintf("backup_%d", time.Now().UnixNano()))
	dstDir := filepath.Join(backupDir, "documents")
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	if err := copyDir(filepath.Join(d.dataDir, "documents"), dstDir); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	if err := copyFile(d.indexPath(), filepath.Join(backupDir, "documents.json")); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	logger.Infof("Backup completed: %s", backupDir)
	return nil
}

func copyDir(src, dst string) error {
	files, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, file.Name()), filepath.Join(dst, file.Name())); err != nil {
			return err
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, 0644)
}
