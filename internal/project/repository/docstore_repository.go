package repository

import (
	"context"
	"time"

	"studio-admin-backend/internal/project/domain"
	"studio-admin-backend/pkg/docstore"

	"go.uber.org/zap"
)

// docstoreProjectRepository implements ProjectRepository on a document store
type docstoreProjectRepository struct {
	store docstore.Store
}

// NewDocstoreProjectRepository creates a new document store backed ProjectRepository
func NewDocstoreProjectRepository(store docstore.Store) ProjectRepository {
	return &docstoreProjectRepository{store: store}
}

func (r *docstoreProjectRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, ProjectsCollection, id)
}

func (r *docstoreProjectRepository) Update(ctx context.Context, id string, patch domain.ProjectPatch, updatedAt time.Time) error {
	return r.store.Update(ctx, ProjectsCollection, id, PatchFields(patch, updatedAt))
}

// PatchFields converts a patch into the stored field map, always including updatedAt
func PatchFields(patch domain.ProjectPatch, updatedAt time.Time) map[string]interface{} {
	fields := map[string]interface{}{"updatedAt": updatedAt}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Client != nil {
		fields["client"] = *patch.Client
	}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}
	return fields
}

// ProjectDecoder reshapes stored documents into projects. Missing or mistyped
// fields are defaulted and logged; the record itself is always kept.
func ProjectDecoder(logger *zap.Logger) func(docstore.Document) domain.Project {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(doc docstore.Document) domain.Project {
		f := docstore.NewFieldReader(doc.Data)
		p := domain.Project{
			ID:          doc.ID,
			Name:        f.String("name"),
			Description: f.String("description"),
			Client:      f.String("client"),
			Status:      domain.ProjectStatus(f.String("status")),
		}
		if ts, ok := f.Time("createdAt"); ok {
			p.CreatedAt = ts
		}
		if ts, ok := f.Time("updatedAt"); ok {
			p.UpdatedAt = &ts
		}

		if bad := f.Malformed(); len(bad) > 0 {
			logger.Debug("project document has malformed fields",
				zap.String("id", doc.ID), zap.Strings("fields", bad))
		}
		return p
	}
}
