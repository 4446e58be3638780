package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"docassist-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func implementations(t *testing.T) map[string]Storage {
	t.Helper()
	dir := t.TempDir()
	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"disk":   NewDiskStorage(filepath.Join(dir, "disk"), 1),
		"bolt":   NewBoltStorage(filepath.Join(dir, "bolt", "documents.db")),
	}
}

func TestStorageContract(t *testing.T) {
	for name, store := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Init())
			defer store.Close()

			_, err := store.GetDocument("missing")
			assert.ErrorIs(t, err, ErrDocumentNotFound)

			first := &model.Document{ID: "patent-1", Title: "First", Content: "<p>one</p>", LastModified: time.Now().UTC()}
			second := &model.Document{ID: "patent-2", Title: "Second", Content: "<p>two</p>", LastModified: time.Now().UTC()}
			require.NoError(t, store.SaveDocument(first))
			require.NoError(t, store.SaveDocument(second))

			got, err := store.GetDocument("patent-1")
			require.NoError(t, err)
			assert.Equal(t, "<p>one</p>", got.Content)
			assert.Equal(t, "First", got.Title)
			assert.True(t, first.LastModified.Equal(got.LastModified))

			got.Content = "mutated"
			again, err := store.GetDocument("patent-1")
			require.NoError(t, err)
			assert.Equal(t, "<p>one</p>", again.Content)

			first.Content = `<p>edited</p><div data-type="mermaid-diagram" data-syntax="pie"></div>`
			require.NoError(t, store.SaveDocument(first))
			got, err = store.GetDocument("patent-1")
			require.NoError(t, err)
			assert.Equal(t, first.Content, got.Content)

			docs, err := store.ListDocuments()
			require.NoError(t, err)
			require.Len(t, docs, 2)
			assert.Equal(t, "patent-1", docs[0].ID)
			assert.Equal(t, "patent-2", docs[1].ID)

			assert.ErrorIs(t, store.SaveDocument(&model.Document{}), ErrInvalidData)
			assert.NoError(t, store.Backup())
		})
	}
}

func TestDiskStorageReloadsFromFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStorage(dir, 4)
	require.NoError(t, store.Init())
	require.NoError(t, store.SaveDocument(&model.Document{ID: "a", Title: "A", Content: "<p>a</p>"}))
	require.NoError(t, store.Close())

	reopened := NewDiskStorage(dir, 4)
	require.NoError(t, reopened.Init())
	doc, err := reopened.GetDocument("a")
	require.NoError(t, err)
	assert.Equal(t, "<p>a</p>", doc.Content)

	_, err = os.Stat(filepath.Join(dir, "documents", "a.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskStorageRejectsPathIDs(t *testing.T) {
	store := NewDiskStorage(t.TempDir(), 4)
	require.NoError(t, store.Init())

	assert.ErrorIs(t, store.SaveDocument(&model.Document{ID: "../escape"}), ErrInvalidData)
	_, err := store.GetDocument("../escape")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDiskStorageBackup(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStorage(dir, 4)
	require.NoError(t, store.Init())
	require.NoError(t, store.SaveDocument(&model.Document{ID: "a", Content: "<p>a</p>"}))
	require.NoError(t, store.Backup())

	backups, err := os.ReadDir(filepath.Join(dir, "backup"))
	require.NoError(t, err)
	require.Len(t, backups, 1)
	_, err = os.Stat(filepath.Join(dir, "backup", backups[0].Name(), "documents", "a.json"))
	assert.NoError(t, err)
}

func TestSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`documents:
  - id: patent-1
    title: Pencil light
    content: "<p>An apparatus, comprising: a pencil.</p>"
  - id: patent-2
    title: Binder
    content: "<p>A binder.</p>"
`), 0644))

	docs, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Pencil light", docs[0].Title)

	store := NewMemoryStorage()
	require.NoError(t, store.SaveDocument(&model.Document{ID: "patent-2", Content: "<p>saved edit</p>"}))

	created, err := Seed(store, docs)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	kept, err := store.GetDocument("patent-2")
	require.NoError(t, err)
	assert.Equal(t, "<p>saved edit</p>", kept.Content)

	seeded, err := store.GetDocument("patent-1")
	require.NoError(t, err)
	assert.False(t, seeded.LastModified.IsZero())
}

func TestLoadSeedFileRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.yaml")
	require.NoError(t, os.WriteFile(path, []byte("documents:\n  - id: a\n  - id: a\n"), 0644))

	_, err := LoadSeedFile(path)
	assert.ErrorIs(t, err, ErrInvalidData)
}
