package repository

import (
	"context"
	"time"

	"studio-admin-backend/internal/project/domain"
	"studio-admin-backend/pkg/docstore"
)

// ProjectsCollection is the document store collection holding projects
const ProjectsCollection = "projects"

// ProjectRepository defines the write side of project data access.
// Reads go through the live query built by LiveQuery.
type ProjectRepository interface {
	// Delete deletes a project by ID
	Delete(ctx context.Context, id string) error

	// Update merges the patch into a project and stamps updatedAt
	Update(ctx context.Context, id string, patch domain.ProjectPatch, updatedAt time.Time) error
}

// LiveQuery returns the query backing the live project list:
// newest first by creation time, capped at limit. The limit never exceeds
// domain.ProjectListCap.
func LiveQuery(limit int) docstore.Query {
	if limit <= 0 || limit > domain.ProjectListCap {
		limit = domain.ProjectListCap
	}
	return docstore.Query{
		Collection: ProjectsCollection,
		OrderBy:    "createdAt",
		Direction:  docstore.Desc,
		Limit:      limit,
	}
}
