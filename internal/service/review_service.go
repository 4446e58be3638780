package service

import (
	"context"
	"time"

	"docassist-backend/internal/document"
	"docassist-backend/internal/model"
	"docassist-backend/pkg/logger"
)

type ReviewService struct {
	assistant Assistant
	maxChars  int
}

func NewReviewService(a Assistant, maxChars int) *ReviewService {
	return &ReviewService{assistant: a, maxChars: maxChars}
}

// Review streams the progress of one review. The channel is closed after the final event,
// which is always one of validation_error, ai_error or ai_suggestions.
func (s *ReviewService) Review(ctx context.Context, html string) <-chan model.ReviewEvent {
	events := make(chan model.ReviewEvent, 4)

	go func() {
		defer close(events)

		send := func(ev model.ReviewEvent) bool {
			ev.Timestamp = time.Now().UTC()
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(model.ReviewEvent{Type: model.ReviewProcessingStart, Message: "Analyzing document..."}) {
			return
		}

		text, err := document.HTMLToPlainText(html)
		if err == nil {
			err = document.ValidateText(text, s.maxChars)
		}
		if err != nil {
			logger.Warnf("Review validation failed: %v", err)
			send(model.ReviewEvent{Type: model.ReviewValidationError, Message: err.Error()})
			return
		}

		result, err := s.assistant.Review(ctx, text)
		if err != nil {
			logger.Errorf("Review failed: %v", err)
			send(model.ReviewEvent{Type: model.ReviewAIError, Message: "AI analysis failed: " + err.Error()})
			return
		}

		logger.Infof("Review finished with %d issues", len(result.Issues))
		send(model.ReviewEvent{Type: model.ReviewSuggestions, Data: result})
	}()

	return events
}
