package delivery

import (
	"errors"
	"net/http"

	"studio-admin-backend/internal/message/domain"
	"studio-admin-backend/internal/message/usecase"
	"studio-admin-backend/pkg/docstore"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageUsecase usecase.MessageUsecase
}

func NewMessageHandler(messageUsecase usecase.MessageUsecase) *MessageHandler {
	return &MessageHandler{
		messageUsecase: messageUsecase,
	}
}

// SetReadRequest is the body of PATCH /api/messages/:id/read. A missing body marks as read.
type SetReadRequest struct {
	Read *bool `json:"read"`
}

// GET /api/messages
func (h *MessageHandler) GetMessages(c *gin.Context) {
	c.JSON(http.StatusOK, h.messageUsecase.State())
}

// GET /api/messages/search?q=devis
func (h *MessageHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	messages := h.messageUsecase.Search(query)
	c.JSON(http.StatusOK, gin.H{"messages": messages, "total": len(messages)})
}

// PATCH /api/messages/:id/read
func (h *MessageHandler) SetRead(c *gin.Context) {
	var req SetReadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	id := c.Param("id")
	var err error
	if req.Read == nil || *req.Read {
		err = h.messageUsecase.MarkAsRead(c.Request.Context(), id)
	} else {
		err = h.messageUsecase.MarkAsUnread(c.Request.Context(), id)
	}
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message updated successfully"})
}

// POST /api/messages/refresh
func (h *MessageHandler) Refresh(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"epoch": h.messageUsecase.Refresh()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyID):
		return http.StatusBadRequest
	case errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, docstore.ErrPermissionDenied):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
