// Package livequery keeps an in-process materialization of a document store query
// in step with the store's live snapshots.
//
// A Synchronizer owns at most one subscription at a time. Every (re)subscription runs
// under a new epoch; results from any epoch other than the current one are discarded,
// so a superseded subscription can never overwrite newer state.
package livequery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"studio-admin-backend/pkg/docstore"

	"go.uber.org/zap"
)

// ErrSubscription wraps every failure to establish or keep a live subscription
var ErrSubscription = errors.New("live subscription failed")

// DecodeFunc reshapes a stored document into the consumer record type.
// It must not fail: malformed fields are defaulted, never dropped.
type DecodeFunc[T any] func(docstore.Document) T

// State is what consumers read. Items is frozen at the last good snapshot while Err is set.
type State[T any] struct {
	Items     []T
	Loading   bool
	Err       string
	Epoch     uint64
	Version   uint64
	UpdatedAt time.Time
}

type Synchronizer[T any] struct {
	store  docstore.Store
	query  docstore.Query
	decode DecodeFunc[T]
	logger *zap.Logger

	mu        sync.Mutex
	parent    context.Context
	active    bool
	epoch     uint64
	cancel    context.CancelFunc
	items     []T
	loading   bool
	err       error
	version   uint64
	updatedAt time.Time

	listeners    map[int]chan struct{}
	nextListener int

	wg sync.WaitGroup
}

// New creates an inactive Synchronizer; call Start to subscribe
func New[T any](store docstore.Store, q docstore.Query, decode DecodeFunc[T], logger *zap.Logger) *Synchronizer[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer[T]{
		store:     store,
		query:     q,
		decode:    decode,
		logger:    logger.With(zap.String("collection", q.Collection)),
		loading:   true,
		listeners: make(map[int]chan struct{}),
	}
}

// Start activates the synchronizer and opens the first subscription.
// Subscriptions live until Close or until ctx is cancelled.
func (s *Synchronizer[T]) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return
	}
	s.parent = ctx
	s.active = true
	s.subscribeLocked()
}

// Refresh tears down the current subscription and opens a new one against the same
// query, returning the new epoch. It is a no-op (returning 0) when not active.
// A cancelled Start context deactivates the synchronizer.
func (s *Synchronizer[T]) Refresh() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return 0
	}
	if s.parent.Err() != nil {
		s.deactivateLocked()
		return 0
	}
	s.subscribeLocked()
	return s.epoch
}

// Close releases the current subscription and waits for its goroutine to exit.
// No state changes happen after Close returns.
func (s *Synchronizer[T]) Close() {
	s.mu.Lock()
	wasActive := s.active
	if wasActive {
		s.deactivateLocked()
	}
	s.mu.Unlock()

	s.wg.Wait()
	if wasActive {
		s.logger.Info("live query closed")
	}
}

// State returns a copy of the current consumer-visible state
func (s *Synchronizer[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State[T]{
		Items:     make([]T, len(s.items)),
		Loading:   s.loading,
		Epoch:     s.epoch,
		Version:   s.version,
		UpdatedAt: s.updatedAt,
	}
	copy(st.Items, s.items)
	if s.err != nil {
		st.Err = s.err.Error()
	}
	return st
}

// Err returns the current subscription error, if any
func (s *Synchronizer[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Listen registers for change notifications. Notifications coalesce: a consumer that
// falls behind sees one pending signal and should re-read State. The channel is closed
// by Close; the returned func unregisters.
func (s *Synchronizer[T]) Listen() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan struct{}, 1)
	if !s.active && s.parent != nil {
		close(ch)
		return ch, func() {}
	}

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.listeners[id]; ok {
			close(c)
			delete(s.listeners, id)
		}
	}
}

func (s *Synchronizer[T]) subscribeLocked() {
	s.releaseLocked()

	s.epoch++
	epoch := s.epoch
	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	s.loading = true
	s.notifyLocked()

	s.wg.Add(1)
	go s.run(ctx, epoch)

	s.logger.Debug("subscribing", zap.Uint64("epoch", epoch))
}

// releaseLocked cancels the current subscription's context. The run goroutine owns
// the iterator and stops it once Next has returned.
func (s *Synchronizer[T]) releaseLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// deactivateLocked ends the current epoch for good: no more state changes, loading
// cleared, listeners closed
func (s *Synchronizer[T]) deactivateLocked() {
	s.active = false
	s.epoch++
	s.loading = false
	s.releaseLocked()
	for id, ch := range s.listeners {
		close(ch)
		delete(s.listeners, id)
	}
}

func (s *Synchronizer[T]) currentLocked(epoch uint64) bool {
	return s.active && epoch == s.epoch
}

func (s *Synchronizer[T]) run(ctx context.Context, epoch uint64) {
	defer s.wg.Done()

	it, err := s.store.Watch(ctx, s.query)
	if err != nil {
		if ctx.Err() != nil {
			s.cancelled(epoch)
			return
		}
		s.fail(epoch, err)
		return
	}
	// Stop must not run concurrently with Next, so only this goroutine calls it
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if errors.Is(err, docstore.ErrIteratorStopped) || ctx.Err() != nil {
				s.cancelled(epoch)
				return
			}
			s.fail(epoch, err)
			return
		}
		if !s.apply(epoch, snap) {
			return
		}
	}
}

// apply replaces the materialized list if epoch is still current.
// It reports whether the epoch was current.
func (s *Synchronizer[T]) apply(epoch uint64, snap *docstore.Snapshot) bool {
	docs := snap.Documents
	if s.query.Limit > 0 && len(docs) > s.query.Limit {
		docs = docs[:s.query.Limit]
	}
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		items = append(items, s.decode(doc))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(epoch) {
		s.logger.Debug("discarding stale snapshot", zap.Uint64("epoch", epoch), zap.Uint64("current", s.epoch))
		return false
	}

	s.items = items
	s.loading = false
	s.err = nil
	s.version++
	s.updatedAt = snap.ReadTime
	if s.updatedAt.IsZero() {
		s.updatedAt = time.Now()
	}
	s.notifyLocked()

	s.logger.Debug("snapshot applied", zap.Uint64("epoch", epoch), zap.Int("count", len(items)))
	return true
}

// fail records a terminal error for the epoch's subscription. There is no retry;
// the list keeps its last good value until the next Refresh delivers.
func (s *Synchronizer[T]) fail(epoch uint64, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(epoch) {
		return
	}

	s.err = fmt.Errorf("%w: %w", ErrSubscription, cause)
	s.loading = false
	s.releaseLocked()
	s.notifyLocked()

	s.logger.Error("live subscription failed", zap.Uint64("epoch", epoch), zap.Error(cause))
}

// cancelled handles a subscription whose context ended. A superseded epoch needs
// nothing; a cancelled Start context deactivates the synchronizer.
func (s *Synchronizer[T]) cancelled(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(epoch) || s.parent.Err() == nil {
		return
	}
	s.deactivateLocked()
	s.logger.Info("live query stopped, parent context done", zap.Uint64("epoch", epoch))
}

func (s *Synchronizer[T]) notifyLocked() {
	for _, ch := range s.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
