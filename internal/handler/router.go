package handler

import (
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Documents *DocumentHandler
	Chat      *ChatHandler
	Review    *ReviewHandler
}

// Register mounts the API routes on the /api group.
func (h *Handlers) Register(api *gin.RouterGroup) {
	documents := api.Group("/documents")
	{
		documents.GET("", h.Documents.ListDocuments)
		documents.GET("/:id", h.Documents.GetDocument)
		documents.POST("/:id/save", h.Documents.SaveDocument)
		documents.POST("/:id/review", h.Review.StreamReview)
	}

	api.POST("/chat", h.Chat.Chat)
	api.POST("/diagrams/render", h.Chat.RenderDiagram)
}
