// Package docstoretest provides an in-memory docstore.Store for tests.
package docstoretest

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"studio-admin-backend/pkg/docstore"
)

// Store is an in-memory docstore.Store. Every successful write pushes a fresh
// snapshot to the live iterators of the written collection.
type Store struct {
	mu    sync.Mutex
	docs  map[string]map[string]map[string]interface{}
	iters []*Iterator

	// WatchErr is returned by Watch when set
	WatchErr error
	// DeleteErr and UpdateErr are returned by the corresponding writes when set
	DeleteErr error
	UpdateErr error
	// WatchGate, when set, blocks Watch until it is closed or ctx is done
	WatchGate chan struct{}

	Deletes []string
	Updates []Update
}

// Update records a single Update call
type Update struct {
	Collection string
	ID         string
	Fields     map[string]interface{}
}

func New() *Store {
	return &Store{docs: make(map[string]map[string]map[string]interface{})}
}

// Put inserts or replaces a document without notifying watchers
func (s *Store) Put(collection, id string, data map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]map[string]interface{})
	}
	s.docs[collection][id] = copyFields(data)
}

// Doc returns a copy of a stored document
func (s *Store) Doc(collection, id string) (docstore.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.docs[collection][id]
	if !ok {
		return docstore.Document{}, false
	}
	return docstore.Document{ID: id, Data: copyFields(data)}, true
}

func (s *Store) Watch(ctx context.Context, q docstore.Query) (docstore.SnapshotIterator, error) {
	s.mu.Lock()
	gate := s.WatchGate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.WatchErr != nil {
		return nil, s.WatchErr
	}

	it := &Iterator{
		ctx:     ctx,
		query:   q,
		results: make(chan result, 64),
		stopped: make(chan struct{}),
	}
	s.iters = append(s.iters, it)
	it.push(result{snap: s.snapshotLocked(q)})
	return it, nil
}

func (s *Store) GetAll(_ context.Context, q docstore.Query) ([]docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(q).Documents, nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Deletes = append(s.Deletes, id)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.docs[collection][id]; !ok {
		return docstore.ErrNotFound
	}
	delete(s.docs[collection], id)
	s.emitLocked(collection)
	return nil
}

func (s *Store) Update(_ context.Context, collection, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Updates = append(s.Updates, Update{Collection: collection, ID: id, Fields: copyFields(fields)})
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	doc, ok := s.docs[collection][id]
	if !ok {
		return docstore.ErrNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	s.emitLocked(collection)
	return nil
}

// Emit pushes the current result to every live iterator of the collection
func (s *Store) Emit(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitLocked(collection)
}

// Fail pushes err to every live iterator of the collection
func (s *Store) Fail(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.iters {
		if it.query.Collection == collection && !it.Stopped() {
			it.push(result{err: err})
		}
	}
}

// PushTo delivers snap to the i-th iterator ever opened, stopped or not
func (s *Store) PushTo(i int, snap *docstore.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < len(s.iters) {
		s.iters[i].push(result{snap: snap})
	}
}

// ActiveWatches counts iterators that have not been stopped
func (s *Store) ActiveWatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.iters {
		if !it.Stopped() {
			n++
		}
	}
	return n
}

// ConcurrentStops counts Stop calls made while a Next call on the same iterator
// was still in flight. The Firestore iterator does not allow this.
func (s *Store) ConcurrentStops() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, it := range s.iters {
		n += int(it.concurrentStops.Load())
	}
	return n
}

// TotalWatches counts every iterator ever opened
func (s *Store) TotalWatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.iters)
}

func (s *Store) emitLocked(collection string) {
	for _, it := range s.iters {
		if it.query.Collection == collection && !it.Stopped() {
			it.push(result{snap: s.snapshotLocked(it.query)})
		}
	}
}

func (s *Store) snapshotLocked(q docstore.Query) *docstore.Snapshot {
	docs := make([]docstore.Document, 0, len(s.docs[q.Collection]))
	for id, data := range s.docs[q.Collection] {
		docs = append(docs, docstore.Document{ID: id, Data: copyFields(data)})
	}

	sort.SliceStable(docs, func(i, j int) bool {
		a, b := orderValue(docs[i], q.OrderBy), orderValue(docs[j], q.OrderBy)
		if a.Equal(b) {
			return docs[i].ID < docs[j].ID
		}
		if q.Direction == docstore.Desc {
			return a.After(b)
		}
		return a.Before(b)
	})

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return &docstore.Snapshot{Documents: docs, ReadTime: time.Now()}
}

func orderValue(doc docstore.Document, field string) time.Time {
	if t, ok := doc.Data[field].(time.Time); ok {
		return t
	}
	return time.Time{}
}

func copyFields(in map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type result struct {
	snap *docstore.Snapshot
	err  error
}

// Iterator is the fake docstore.SnapshotIterator. Like the Firestore iterator,
// Next returns once the Watch context is cancelled.
type Iterator struct {
	ctx     context.Context
	query   docstore.Query
	results chan result
	stopped chan struct{}
	once    sync.Once

	inNext          atomic.Int32
	concurrentStops atomic.Int32
}

func (it *Iterator) Next() (*docstore.Snapshot, error) {
	it.inNext.Add(1)
	defer it.inNext.Add(-1)

	select {
	case <-it.stopped:
		return nil, docstore.ErrIteratorStopped
	case <-it.ctx.Done():
		return nil, it.ctx.Err()
	default:
	}

	select {
	case r := <-it.results:
		return r.snap, r.err
	case <-it.stopped:
		return nil, docstore.ErrIteratorStopped
	case <-it.ctx.Done():
		return nil, it.ctx.Err()
	}
}

func (it *Iterator) Stop() {
	if it.inNext.Load() > 0 {
		it.concurrentStops.Add(1)
	}
	it.once.Do(func() { close(it.stopped) })
}

func (it *Iterator) Stopped() bool {
	select {
	case <-it.stopped:
		return true
	default:
		return false
	}
}

func (it *Iterator) push(r result) {
	select {
	case it.results <- r:
	default:
	}
}
