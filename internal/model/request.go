package model

// ChatMessage is one entry of a conversation as exchanged with the backend.
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages               []ChatMessage `json:"messages" binding:"required,min=1,dive"`
	CurrentDocumentContent string        `json:"current_document_content"`
}

type SaveDocumentRequest struct {
	Content string `json:"content"`
}

type RenderDiagramRequest struct {
	MermaidSyntax string `json:"mermaid_syntax" binding:"required"`
	Title         string `json:"title"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ReviewRequest optionally carries unsaved content; when empty the stored document is reviewed.
type ReviewRequest struct {
	Content string `json:"content"`
}
