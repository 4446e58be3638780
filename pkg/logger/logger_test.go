package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOutputRedirectsLogs(t *testing.T) {
	require.NoError(t, Init(Options{Level: "warn", Format: "json"}))

	var buf bytes.Buffer
	SetOutput(&buf)

	Infof("dropped %d", 1)
	WithFields(map[string]interface{}{"document_id": "doc1"}).Warn("save failed")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"msg":"save failed"`)
	assert.Contains(t, out, `"document_id":"doc1"`)
}

func TestSetOutputBeforeInit(t *testing.T) {
	log = nil
	t.Cleanup(func() { log = nil })

	var buf bytes.Buffer
	SetOutput(&buf)
	Error("boom")

	assert.Contains(t, buf.String(), "boom")
}
