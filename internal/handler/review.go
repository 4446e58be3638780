package handler

import (
	"context"
	"net/http"
	"time"

	"docassist-backend/internal/model"
	"docassist-backend/internal/service"
	"docassist-backend/internal/utils"
	"docassist-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	reviewTimeout     = 5 * time.Minute
	heartbeatInterval = 30 * time.Second
)

type ReviewHandler struct {
	documentService *service.DocumentService
	reviewService   *service.ReviewService
}

func NewReviewHandler(documentService *service.DocumentService, reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		documentService: documentService,
		reviewService:   reviewService,
	}
}

// StreamReview reviews a document and streams the review events as SSE. Each event is sent
// with its type as the SSE event name and the event itself as JSON data.
func (h *ReviewHandler) StreamReview(c *gin.Context) {
	id := c.Param("id")

	var req model.ReviewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	content := req.Content
	if content == "" {
		doc, err := h.documentService.Get(id)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		content = doc.Content
	}

	sseWriter := utils.NewSSEWriter(c.Writer)
	c.Status(http.StatusOK)

	ctx, cancel := context.WithTimeout(c.Request.Context(), reviewTimeout)
	defer cancel()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	events := h.reviewService.Review(ctx, content)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				sseWriter.Close()
				return
			}
			if err := sseWriter.WriteJSON(ev.Type, ev); err != nil {
				logger.Errorf("Failed to write SSE: %v", err)
				return
			}

		case <-heartbeat.C:
			if err := sseWriter.WriteJSON("heartbeat", gin.H{"timestamp": time.Now().Unix()}); err != nil {
				logger.Warnf("Heartbeat failed: %v", err)
				return
			}

		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				sseWriter.WriteJSON(model.ReviewAIError, model.ReviewEvent{
					Type:      model.ReviewAIError,
					Message:   "review timed out",
					Timestamp: time.Now().UTC(),
				})
			}
			sseWriter.Close()
			return
		}
	}
}
