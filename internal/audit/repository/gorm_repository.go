package repository

import (
	"time"

	"studio-admin-backend/internal/audit/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormEntryRepository implements EntryRepository using GORM
type gormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository creates a new GORM-based EntryRepository
func NewGormEntryRepository(db *gorm.DB) EntryRepository {
	return &gormEntryRepository{db: db}
}

func (r *gormEntryRepository) Create(entry *domain.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.Create(entry).Error
}

func (r *gormEntryRepository) FindRecent(projectID string, limit int) ([]*domain.Entry, error) {
	var entries []*domain.Entry

	query := r.db.Model(&domain.Entry{})
	if projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}

	err := query.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *gormEntryRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&domain.Entry{})
	return result.RowsAffected, result.Error
}
