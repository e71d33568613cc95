package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"studio-admin-backend/internal/project/domain"
	"studio-admin-backend/internal/project/dto"
	"studio-admin-backend/internal/project/usecase"
	"studio-admin-backend/pkg/docstore"

	"github.com/gin-gonic/gin"
)

const defaultActivityMonths = 6

type ProjectHandler struct {
	projectUsecase usecase.ProjectUsecase
}

func NewProjectHandler(projectUsecase usecase.ProjectUsecase) *ProjectHandler {
	return &ProjectHandler{
		projectUsecase: projectUsecase,
	}
}

// GetProjects returns the live list with its loading and error status
// GET /api/projects
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	c.JSON(http.StatusOK, h.projectUsecase.State())
}

// GetSorted returns the live list newest first
// GET /api/projects/sorted?limit=5
func (h *ProjectHandler) GetSorted(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	projects := h.projectUsecase.SortedByRecency(limit)
	c.JSON(http.StatusOK, dto.ProjectsResponse{Projects: projects, Total: len(projects)})
}

// GET /api/projects/stats
func (h *ProjectHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.projectUsecase.Stats())
}

// GET /api/projects/activity?months=6
func (h *ProjectHandler) GetActivity(c *gin.Context) {
	months := defaultActivityMonths
	if monthsStr := c.Query("months"); monthsStr != "" {
		if parsed, err := strconv.Atoi(monthsStr); err == nil && parsed > 0 && parsed <= 24 {
			months = parsed
		}
	}

	c.JSON(http.StatusOK, dto.ActivityResponse{Months: h.projectUsecase.MonthlyActivity(months)})
}

// GET /api/projects/search?q=vitrine
func (h *ProjectHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	projects := h.projectUsecase.Search(query)
	c.JSON(http.StatusOK, dto.ProjectsResponse{Projects: projects, Total: len(projects)})
}

// Refresh forces a resubscription of the live list
// POST /api/projects/refresh
func (h *ProjectHandler) Refresh(c *gin.Context) {
	c.JSON(http.StatusAccepted, dto.RefreshResponse{Epoch: h.projectUsecase.RefreshProjects()})
}

// PUT /api/projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.projectUsecase.UpdateProject(c.Request.Context(), c.Param("id"), req.Patch()); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project updated successfully"})
}

// PATCH /api/projects/:id/status
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := domain.ProjectPatch{Status: &req.Status}
	if err := h.projectUsecase.UpdateProject(c.Request.Context(), c.Param("id"), patch); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project status updated successfully"})
}

// DELETE /api/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.projectUsecase.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyID),
		errors.Is(err, domain.ErrEmptyPatch),
		errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, docstore.ErrPermissionDenied):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
