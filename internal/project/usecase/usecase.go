package usecase

import (
	"context"
	"time"

	"studio-admin-backend/internal/project/domain"
	"studio-admin-backend/pkg/livequery"
)

// ProjectUsecase is the single entry point presentation consumers use:
// live reads, derived read models and mutations
type ProjectUsecase interface {
	// State returns the consumer read contract: projects, loading, error
	State() ProjectState

	// Stats counts the live projects by status
	Stats() domain.Stats

	// SortedByRecency returns the live projects newest first, at most limit when limit > 0
	SortedByRecency(limit int) []domain.Project

	// MonthlyActivity buckets the live projects by creation month
	MonthlyActivity(months int) []domain.MonthBucket

	// Search fuzzy-matches live projects by name, client and description
	Search(query string) []domain.Project

	// RefreshProjects forces a resubscription of the live project list
	RefreshProjects() uint64

	// DeleteProject deletes a project and triggers a refresh on success
	DeleteProject(ctx context.Context, id string) error

	// UpdateProject merge-updates a project and triggers a refresh on success
	UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) error

	// Changes notifies when the live list or its status changes
	Changes() (<-chan struct{}, func())
}

// ProjectState is the consumer read contract
type ProjectState struct {
	Projects  []domain.Project `json:"projects"`
	Loading   bool             `json:"loading"`
	Error     *string          `json:"error"`
	Epoch     uint64           `json:"epoch"`
	Version   uint64           `json:"version"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ProjectSync is the live project list, satisfied by *livequery.Synchronizer[domain.Project]
type ProjectSync interface {
	State() livequery.State[domain.Project]
	Refresh() uint64
	Listen() (<-chan struct{}, func())
}

// MutationObserver is told about every confirmed project write
type MutationObserver interface {
	OnProjectMutation(ctx context.Context, m domain.Mutation) error
}
