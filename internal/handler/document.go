package handler

import (
	"errors"
	"net/http"

	"docassist-backend/internal/model"
	"docassist-backend/internal/service"
	"docassist-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	documentService *service.DocumentService
}

func NewDocumentHandler(documentService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	documents, err := h.documentService.List()
	if err != nil {
		logger.Errorf("Failed to list documents: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": documents,
	})
}

func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id := c.Param("id")

	doc, err := h.documentService.Get(id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	lastModified := doc.LastModified
	c.JSON(http.StatusOK, model.DocumentResponse{
		ID:           doc.ID,
		Title:        doc.Title,
		Content:      doc.Content,
		LastModified: &lastModified,
	})
}

func (h *DocumentHandler) SaveDocument(c *gin.Context) {
	id := c.Param("id")

	var req model.SaveDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.documentService.Save(id, req.Content)
	if err != nil {
		logger.Warnf("Failed to save document %s: %v", id, err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownDocument):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyConversation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
