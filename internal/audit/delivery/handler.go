package delivery

import (
	"net/http"
	"strconv"

	"studio-admin-backend/internal/audit/domain"

	"github.com/gin-gonic/gin"
)

// EntryReader serves the recent audit history
type EntryReader interface {
	Recent(projectID string, limit int) ([]*domain.Entry, error)
}

type AuditHandler struct {
	reader EntryReader
}

func NewAuditHandler(reader EntryReader) *AuditHandler {
	return &AuditHandler{reader: reader}
}

// GetEntries returns the newest audit entries, optionally for one project
// GET /api/audit?project_id=p1&limit=50
func (h *AuditHandler) GetEntries(c *gin.Context) {
	if h.reader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit log is disabled"})
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	entries, err := h.reader.Recent(c.Query("project_id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []*domain.Entry{}
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
