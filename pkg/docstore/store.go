package docstore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnavailable      = errors.New("document store unavailable")
	ErrIteratorStopped  = errors.New("snapshot iterator stopped")
)

// Direction is the sort direction of a query
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Query selects an ordered, capped view of a single collection
type Query struct {
	Collection string
	OrderBy    string
	Direction  Direction
	Limit      int
}

// Document is a stored record: its identifier plus the raw field map
type Document struct {
	ID   string
	Data map[string]interface{}
}

// Snapshot is the complete ordered result of a query at ReadTime
type Snapshot struct {
	Documents []Document
	ReadTime  time.Time
}

// SnapshotIterator yields a snapshot every time the query result changes.
// Next blocks until the next snapshot is available. After Stop, Next returns ErrIteratorStopped.
type SnapshotIterator interface {
	Next() (*Snapshot, error)
	Stop()
}

// Store is the subset of a hosted document database this service relies on
type Store interface {
	// Watch subscribes to a query. The first snapshot is the initial result.
	Watch(ctx context.Context, q Query) (SnapshotIterator, error)

	// GetAll reads the query result once
	GetAll(ctx context.Context, q Query) ([]Document, error)

	// Delete removes a document; ErrNotFound if it does not exist
	Delete(ctx context.Context, collection, id string) error

	// Update merges fields into an existing document; ErrNotFound if it does not exist
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
}
