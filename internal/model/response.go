package model

import "time"

// DiagramInsertion is a proposal from the assistant to place a diagram after a text fragment.
type DiagramInsertion struct {
	InsertAfterText string `json:"insert_after_text"`
	MermaidSyntax   string `json:"mermaid_syntax"`
	DiagramType     string `json:"diagram_type"`
	Title           string `json:"title,omitempty"`
}

// Diagram is a rendered mermaid block found in an assistant reply.
type Diagram struct {
	Kind  string `json:"kind"`
	Title string `json:"title,omitempty"`
	HTML  string `json:"html"`
	Error string `json:"error,omitempty"`
}

type ChatResponse struct {
	Response          string             `json:"response"`
	ResponseHTML      string             `json:"response_html,omitempty"`
	Diagrams          []Diagram          `json:"diagrams,omitempty"`
	DiagramInsertions []DiagramInsertion `json:"diagram_insertions,omitempty"`
}

type DocumentResponse struct {
	ID           string     `json:"id,omitempty"`
	Title        string     `json:"title,omitempty"`
	Content      string     `json:"content"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

type SaveDocumentResponse struct {
	Status       string    `json:"status"`
	LastModified time.Time `json:"last_modified"`
	Changes      Changes   `json:"changes"`
}

// Changes summarizes a line diff between two revisions of a document.
type Changes struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

type DocumentSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LastModified time.Time `json:"last_modified"`
}

// Issue is a single review finding inside a suggestion.
type Issue struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// Suggestion merges every issue the reviewer found in one text segment.
type Suggestion struct {
	Type         string  `json:"type"`
	Severity     string  `json:"severity"`
	Paragraph    int     `json:"paragraph"`
	Description  string  `json:"description"`
	Text         string  `json:"text"`
	Suggestion   string  `json:"suggestion"`
	OriginalText string  `json:"originalText"`
	ReplaceTo    string  `json:"replaceTo"`
	Issues       []Issue `json:"issues"`
}

type ReviewResult struct {
	Issues            []Suggestion       `json:"issues"`
	DiagramInsertions []DiagramInsertion `json:"diagram_insertions"`
}

// ReviewEvent is one message of the review stream.
type ReviewEvent struct {
	Type      string        `json:"type"`
	Message   string        `json:"message,omitempty"`
	Data      *ReviewResult `json:"data,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

const (
	ReviewProcessingStart = "processing_start"
	ReviewValidationError = "validation_error"
	ReviewSuggestions     = "ai_suggestions"
	ReviewAIError         = "ai_error"
)
