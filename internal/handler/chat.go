package handler

import (
	"net/http"

	"docassist-backend/internal/model"
	"docassist-backend/internal/service"
	"docassist-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger.Infof("Chat request with %d messages, document %d bytes",
		len(req.Messages), len(req.CurrentDocumentContent))

	resp, err := h.chatService.Chat(c.Request.Context(), &req)
	if err != nil {
		logger.Errorf("Chat failed: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) RenderDiagram(c *gin.Context) {
	var req model.RenderDiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.chatService.RenderDiagram(req.MermaidSyntax, req.Title))
}
