package dto

import "studio-admin-backend/internal/project/domain"

// UpdateProjectRequest is the body of PUT /api/projects/:id. Absent fields are left untouched.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Client      *string `json:"client"`
	Status      *string `json:"status"`
}

func (r UpdateProjectRequest) Patch() domain.ProjectPatch {
	return domain.ProjectPatch{
		Name:        r.Name,
		Description: r.Description,
		Client:      r.Client,
		Status:      r.Status,
	}
}

// UpdateStatusRequest is the body of PATCH /api/projects/:id/status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ProjectsResponse struct {
	Projects []domain.Project `json:"projects"`
	Total    int              `json:"total"`
}

type ActivityResponse struct {
	Months []domain.MonthBucket `json:"months"`
}

type RefreshResponse struct {
	Epoch uint64 `json:"epoch"`
}
