package storage

import "errors"

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidData      = errors.New("invalid data")
	ErrStorageInit      = errors.New("storage initialization failed")
	ErrFileOperation    = errors.New("file operation failed")
)
