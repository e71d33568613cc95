package repository

import (
	"time"

	"studio-admin-backend/internal/audit/domain"
)

// EntryRepository defines the interface for audit entry data access
type EntryRepository interface {
	// Create stores a new entry
	Create(entry *domain.Entry) error

	// FindRecent returns the newest entries, optionally for one project
	FindRecent(projectID string, limit int) ([]*domain.Entry, error)

	// DeleteOlderThan removes entries created before cutoff and returns how many were removed
	DeleteOlderThan(cutoff time.Time) (int64, error)
}
