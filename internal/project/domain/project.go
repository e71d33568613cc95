package domain

import (
	"errors"
	"time"
)

// ProjectStatus represents the current state of a project
type ProjectStatus string

const (
	ProjectStatusPending    ProjectStatus = "pending"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
)

// ProjectListCap is the number of most recently created projects kept live
const ProjectListCap = 50

var (
	ErrEmptyID       = errors.New("project id is required")
	ErrEmptyPatch    = errors.New("project patch has no fields")
	ErrInvalidStatus = errors.New("invalid project status")
)

// Valid reports whether s is one of the writable statuses
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPending, ProjectStatusInProgress, ProjectStatusCompleted:
		return true
	}
	return false
}

// Project is a client project shown in the back-office
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Client      string        `json:"client,omitempty"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
}

// ProjectPatch holds the fields an update may change. Nil fields are left untouched.
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Client      *string `json:"client,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (p ProjectPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Client == nil && p.Status == nil
}

// Validate rejects empty patches and unknown statuses
func (p ProjectPatch) Validate() error {
	if p.Empty() {
		return ErrEmptyPatch
	}
	if p.Status != nil && !ProjectStatus(*p.Status).Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// MutationKind names a write made through the mutation gateway
type MutationKind string

const (
	MutationDelete MutationKind = "delete"
	MutationUpdate MutationKind = "update"
)

// Mutation describes a confirmed write, handed to audit and notification observers
type Mutation struct {
	Kind      MutationKind
	ProjectID string
	Patch     *ProjectPatch
	Actor     string
	At        time.Time
}
