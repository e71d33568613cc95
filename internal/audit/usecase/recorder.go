package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"studio-admin-backend/internal/audit/domain"
	"studio-admin-backend/internal/audit/repository"
	projectdomain "studio-admin-backend/internal/project/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Recorder writes an audit entry for every confirmed project mutation and serves
// the recent history
type Recorder struct {
	repo repository.EntryRepository
}

// NewRecorder creates a new Recorder
func NewRecorder(repo repository.EntryRepository) *Recorder {
	return &Recorder{repo: repo}
}

// OnProjectMutation implements the project mutation observer
func (r *Recorder) OnProjectMutation(_ context.Context, m projectdomain.Mutation) error {
	entry := &domain.Entry{
		Action:    string(m.Kind),
		ProjectID: m.ProjectID,
		ActorID:   m.Actor,
		CreatedAt: m.At,
	}
	if m.Patch != nil {
		changes, err := json.Marshal(m.Patch)
		if err != nil {
			return fmt.Errorf("encode audit changes: %w", err)
		}
		entry.Changes = string(changes)
	}

	if err := r.repo.Create(entry); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, clamping limit to a sane range
func (r *Recorder) Recent(projectID string, limit int) ([]*domain.Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return r.repo.FindRecent(projectID, limit)
}
