package service

import (
	"context"
	"errors"
	"fmt"

	"docassist-backend/internal/assistant"
	"docassist-backend/internal/diagram"
	"docassist-backend/internal/markdown"
	"docassist-backend/internal/model"
	"docassist-backend/pkg/logger"
)

var ErrEmptyConversation = errors.New("messages must not be empty")

// Assistant is the model-facing part the services depend on.
type Assistant interface {
	ChatWithDocument(ctx context.Context, history []model.ChatMessage, documentHTML string) (*assistant.ChatReply, error)
	Review(ctx context.Context, plainText string) (*model.ReviewResult, error)
}

type ChatService struct {
	assistant Assistant
	markdown  *markdown.Converter
	renderer  *diagram.Renderer
}

func NewChatService(a Assistant, converter *markdown.Converter, renderer *diagram.Renderer) *ChatService {
	return &ChatService{
		assistant: a,
		markdown:  converter,
		renderer:  renderer,
	}
}

// Chat answers the conversation and decorates the reply with its HTML rendering and the
// diagrams embedded in it.
func (s *ChatService) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, ErrEmptyConversation
	}

	reply, err := s.assistant.ChatWithDocument(ctx, req.Messages, req.CurrentDocumentContent)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	resp := &model.ChatResponse{
		Response:          reply.Text,
		DiagramInsertions: reply.Insertions,
	}

	if html, err := s.markdown.ToHTML(reply.Text); err != nil {
		logger.Warnf("Failed to render reply markdown: %v", err)
	} else {
		resp.ResponseHTML = html
	}

	for _, source := range s.markdown.MermaidSources(reply.Text) {
		resp.Diagrams = append(resp.Diagrams, toModelDiagram(s.renderer.Render(source, "")))
	}

	if len(resp.DiagramInsertions) > 0 {
		logger.Infof("Reply carries %d diagram insertions", len(resp.DiagramInsertions))
	}
	return resp, nil
}

// RenderDiagram renders a single description.
func (s *ChatService) RenderDiagram(source, title string) model.Diagram {
	return toModelDiagram(s.renderer.Render(source, title))
}

func toModelDiagram(a diagram.Artifact) model.Diagram {
	d := model.Diagram{
		Kind:  string(a.Kind),
		Title: a.Title,
		HTML:  a.HTML,
	}
	if a.Err != nil {
		d.Error = a.Err.Error()
	}
	return d
}
