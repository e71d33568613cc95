package domain

import "time"

// Entry records one confirmed project mutation made through the back-office
type Entry struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Action    string    `json:"action" gorm:"index;not null"` // "delete" or "update"
	ProjectID string    `json:"project_id" gorm:"index;not null"`
	ActorID   string    `json:"actor_id,omitempty" gorm:"index"`
	Changes   string    `json:"changes,omitempty"` // JSON of the applied patch
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (Entry) TableName() string {
	return "project_audit_entries"
}
