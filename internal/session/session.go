// Package session ties a document view, the chat panel and diagram insertion together for
// one user.
package session

import (
	"context"

	"docassist-backend/internal/model"
	"docassist-backend/pkg/logger"
)

type Session struct {
	View   *View
	Panel  *Panel
	Editor *Editor

	lastApplied int
}

func New(backend Backend) *Session {
	view := NewView(backend)
	s := &Session{
		View:   view,
		Panel:  NewPanel(backend, view.Content),
		Editor: NewEditor(view),
	}
	s.Panel.OnDiagramProposals(s.applyProposals)
	return s
}

// Send forwards text to the panel and reports how many diagrams the reply placed into the
// current document.
func (s *Session) Send(ctx context.Context, text string) (Message, int, error) {
	s.lastApplied = 0
	reply, err := s.Panel.Send(ctx, text)
	return reply, s.lastApplied, err
}

// ApplyReview places the diagrams proposed by a review into the current document.
func (s *Session) ApplyReview(result *model.ReviewResult) (int, error) {
	if result == nil || len(result.DiagramInsertions) == 0 {
		return 0, nil
	}
	return s.Editor.Apply(result.DiagramInsertions)
}

func (s *Session) applyProposals(insertions []model.DiagramInsertion) {
	applied, err := s.Editor.Apply(insertions)
	if err != nil {
		logger.Warnf("Diagram proposals not applied: %v", err)
		return
	}
	s.lastApplied = applied
}
