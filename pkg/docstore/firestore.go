package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store on top of a Cloud Firestore client
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an existing Firestore client
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) query(q Query) firestore.Query {
	dir := firestore.Asc
	if q.Direction == Desc {
		dir = firestore.Desc
	}

	fq := s.client.Collection(q.Collection).Query
	if q.OrderBy != "" {
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq
}

func (s *FirestoreStore) Watch(ctx context.Context, q Query) (SnapshotIterator, error) {
	if q.Collection == "" {
		return nil, errors.New("watch: collection is required")
	}
	return &firestoreIterator{it: s.query(q).Snapshots(ctx)}, nil
}

func (s *FirestoreStore) GetAll(ctx context.Context, q Query) ([]Document, error) {
	snaps, err := s.query(q).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", q.Collection, mapError(err))
	}
	return toDocuments(snaps), nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	// Exists turns a silent no-op delete of a missing document into NotFound
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, mapError(err))
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, mapError(err))
	}
	return nil
}

type firestoreIterator struct {
	it *firestore.QuerySnapshotIterator
}

func (i *firestoreIterator) Next() (*Snapshot, error) {
	qs, err := i.it.Next()
	if err != nil {
		return nil, mapError(err)
	}

	docs, err := qs.Documents.GetAll()
	if err != nil {
		return nil, mapError(err)
	}

	return &Snapshot{Documents: toDocuments(docs), ReadTime: qs.ReadTime}, nil
}

func (i *firestoreIterator) Stop() {
	i.it.Stop()
}

func toDocuments(snaps []*firestore.DocumentSnapshot) []Document {
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs
}

// mapError translates gRPC status codes from the Firestore SDK into package sentinels,
// keeping the original error in the chain
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, iterator.Done) {
		return ErrIteratorStopped
	}

	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case codes.Canceled:
		return fmt.Errorf("%w: %w", ErrIteratorStopped, err)
	}
	return err
}
