package model

import "time"

// Document is a stored document record.
type Document struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	Content      string    `json:"content" yaml:"content"`
	LastModified time.Time `json:"last_modified" yaml:"-"`
}
