package livequery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"studio-admin-backend/pkg/docstore"
	"studio-admin-backend/pkg/docstore/docstoretest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type record struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

func decodeRecord(doc docstore.Document) record {
	r := record{ID: doc.ID}
	if name, ok := doc.Data["name"].(string); ok {
		r.Name = name
	}
	if ts, ok := doc.Data["createdAt"].(time.Time); ok {
		r.CreatedAt = ts
	}
	return r
}

var testQuery = docstore.Query{
	Collection: "items",
	OrderBy:    "createdAt",
	Direction:  docstore.Desc,
	Limit:      50,
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seed(store *docstoretest.Store, n int) {
	for i := 0; i < n; i++ {
		store.Put("items", fmt.Sprintf("item-%03d", i), map[string]interface{}{
			"name":      fmt.Sprintf("Item %d", i),
			"createdAt": base.Add(time.Duration(i) * time.Hour),
		})
	}
}

func newSync(store docstore.Store) *Synchronizer[record] {
	return New[record](store, testQuery, decodeRecord, zap.NewNop())
}

func waitReady(t *testing.T, s *Synchronizer[record]) State[record] {
	t.Helper()
	require.Eventually(t, func() bool {
		st := s.State()
		return !st.Loading
	}, time.Second, 5*time.Millisecond)
	return s.State()
}

func TestSynchronizer_InitialSnapshotIsCappedAndOrdered(t *testing.T) {
	store := docstoretest.New()
	seed(store, 60)

	s := newSync(store)
	s.Start(context.Background())
	defer s.Close()

	st := waitReady(t, s)
	require.Len(t, st.Items, 50)
	assert.Empty(t, st.Err)
	assert.Equal(t, "item-059", st.Items[0].ID)
	for i := 1; i < len(st.Items); i++ {
		assert.False(t, st.Items[i].CreatedAt.After(st.Items[i-1].CreatedAt), "items must be newest first")
	}
}

func TestSynchronizer_TruncatesOversizedSnapshot(t *testing.T) {
	s := newSync(docstoretest.New())
	s.mu.Lock()
	s.active = true
	s.epoch = 1
	s.mu.Unlock()

	docs := make([]docstore.Document, 70)
	for i := range docs {
		docs[i] = docstore.Document{ID: fmt.Sprintf("d%d", i), Data: map[string]interface{}{}}
	}

	require.True(t, s.apply(1, &docstore.Snapshot{Documents: docs}))
	assert.Len(t, s.State().Items, 50)
}

func TestSynchronizer_LoadingUntilFirstSnapshot(t *testing.T) {
	store := docstoretest.New()
	seed(store, 3)
	store.WatchGate = make(chan struct{})

	s := newSync(store)
	s.Start(context.Background())
	defer s.Close()

	st := s.State()
	assert.True(t, st.Loading)
	assert.Empty(t, st.Items)

	close(store.WatchGate)
	st = waitReady(t, s)
	assert.Len(t, st.Items, 3)
}

func TestSynchronizer_EmptyCollectionIsReady(t *testing.T) {
	s := newSync(docstoretest.New())
	s.Start(context.Background())
	defer s.Close()

	st := waitReady(t, s)
	assert.Empty(t, st.Items)
	assert.Empty(t, st.Err)
}

func TestSynchronizer_WatchFailureIsTerminalUntilRefresh(t *testing.T) {
	store := docstoretest.New()
	seed(store, 2)
	store.WatchErr = docstore.ErrPermissionDenied

	s := newSync(store)
	s.Start(context.Background())
	defer s.Close()

	st := waitReady(t, s)
	assert.Contains(t, st.Err, "permission denied")
	assert.ErrorIs(t, s.Err(), ErrSubscription)
	assert.ErrorIs(t, s.Err(), docstore.ErrPermissionDenied)

	// no automatic retry
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, store.TotalWatches())

	store.WatchErr = nil
	s.Refresh()
	require.Eventually(t, func() bool {
		st := s.State()
		return st.Err == "" && len(st.Items) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSynchronizer_StreamErrorFreezesLastGoodList(t *testing.T) {
	store := docstoretest.New()
	seed(store, 4)

	s := newSync(store)
	s.Start(context.Background())
	defer s.Close()
	waitReady(t, s)

	store.Fail("items", docstore.ErrUnavailable)
	require.Eventually(t, func() bool { return s.State().Err != "" }, time.Second, 5*time.Millisecond)

	st := s.State()
	assert.Len(t, st.Items, 4)
	assert.False(t, st.Loading)
	require.Eventually(t, func() bool { return store.ActiveWatches() == 0 }, time.Second, 5*time.Millisecond,
		"failed subscription must be released")
}

func TestSynchronizer_SnapshotReplacesList(t *testing.T) {
	store := docstoretest.New()
	seed(store, 3)

	s := newSync(store)
	s.Start(context.Background())
	defer s.Close()
	first := waitReady(t, s)

	require.NoError(t, store.Delete(context.Background(), "items", "item-001"))
	require.Eventually(t, func() bool { return s.State().Version > first.Version }, time.Second, 5*time.Millisecond)

	st := s.State()
	require.Len(t, st.Items, 2)
	for _, it := range st.Items {
		assert.NotEqual(t, "item-001", it.ID)
	}
}

func TestSynchronizer_RapidRefreshKeepsOneSubscription(t *testing.T) {
	store := docstoretest.New()
	seed(store, 2)
	store.WatchGate = make(chan struct{})

	s := newSync(store)
	s.Start(context.Background())
	defer s.Close()

	s.Refresh()
	last := s.Refresh()
	assert.Equal(t, uint64(3), last)

	close(store.WatchGate)

	require.Eventually(t, func() bool {
		return !s.State().Loading
	}, time.Second, 5*time.Millisecond)
	// superseded epochs were cancelled while blocked in Watch, or stopped right after
	require.Eventually(t, func() bool { return store.ActiveWatches() == 1 }, time.Second, 5*time.Millisecond)

	st := s.State()
	assert.Equal(t, last, st.Epoch)
	assert.Len(t, st.Items, 2)
}

func TestSynchronizer_StaleEpochSnapshotIsDiscarded(t *testing.T) {
	store := docstoretest.New()
	seed(store, 2)

	s := newSync(store)
	s.Start(context.Background())
	defer s.Close()
	waitReady(t, s)

	stale := s.State().Epoch
	s.Refresh()
	before := waitReady(t, s)

	late := &docstore.Snapshot{Documents: []docstore.Document{{ID: "ghost", Data: map[string]interface{}{}}}}
	assert.False(t, s.apply(stale, late))

	after := s.State()
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Items, after.Items)
}

func TestSynchronizer_CloseReleasesAndIgnoresLateSnapshots(t *testing.T) {
	store := docstoretest.New()
	seed(store, 2)

	s := newSync(store)
	s.Start(context.Background())
	ready := waitReady(t, s)

	changes, _ := s.Listen()
	s.Close()

	assert.Equal(t, 0, store.ActiveWatches())
	_, open := <-changes
	assert.False(t, open, "listeners are closed on deactivation")

	late := &docstore.Snapshot{Documents: []docstore.Document{{ID: "ghost", Data: map[string]interface{}{}}}}
	assert.False(t, s.apply(ready.Epoch, late))
	store.PushTo(0, late)
	store.Emit("items")

	after := s.State()
	assert.Equal(t, ready.Items, after.Items)
	assert.Equal(t, ready.Version, after.Version)

	assert.Equal(t, uint64(0), s.Refresh(), "refresh after close is a no-op")
	s.Close()
}

func TestSynchronizer_ListenSignalsChanges(t *testing.T) {
	store := docstoretest.New()
	seed(store, 1)

	s := newSync(store)
	changes, stop := s.Listen()
	defer stop()

	s.Start(context.Background())
	defer s.Close()

	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("expected change notification")
	}
}

func TestSynchronizer_ParentCancelStopsQuietly(t *testing.T) {
	store := docstoretest.New()
	seed(store, 1)

	ctx, cancel := context.WithCancel(context.Background())
	s := newSync(store)
	s.Start(ctx)
	waitReady(t, s)

	cancel()
	s.Close()
	assert.Empty(t, s.State().Err)
	assert.False(t, errors.Is(s.Err(), ErrSubscription))
}

func TestSynchronizer_StopNeverRacesNext(t *testing.T) {
	store := docstoretest.New()
	seed(store, 3)

	s := newSync(store)
	s.Start(context.Background())
	waitReady(t, s)

	s.Refresh()
	waitReady(t, s)
	s.Refresh()
	waitReady(t, s)
	s.Close()

	assert.Equal(t, 0, store.ConcurrentStops(), "iterator stopped while Next was in flight")
	assert.Equal(t, 0, store.ActiveWatches())
	assert.Equal(t, 3, store.TotalWatches())
}

func TestSynchronizer_ParentCancelDeactivates(t *testing.T) {
	store := docstoretest.New()
	seed(store, 1)
	store.WatchGate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	s := newSync(store)
	changes, _ := s.Listen()
	s.Start(ctx)
	assert.True(t, s.State().Loading)

	cancel()
	require.Eventually(t, func() bool { return !s.State().Loading }, time.Second, 5*time.Millisecond)

	assert.Equal(t, uint64(0), s.Refresh(), "refresh after the parent is done is a no-op")
	assert.Empty(t, s.State().Err)
	require.Eventually(t, func() bool {
		select {
		case _, open := <-changes:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	s.Close()
}

func TestSynchronizer_RefreshAfterParentCancel(t *testing.T) {
	store := docstoretest.New()
	seed(store, 1)

	ctx, cancel := context.WithCancel(context.Background())
	s := newSync(store)
	s.Start(ctx)
	waitReady(t, s)

	cancel()
	assert.Equal(t, uint64(0), s.Refresh())
	assert.False(t, s.State().Loading)
	assert.Equal(t, 1, store.TotalWatches(), "no new subscription after the parent is done")
	s.Close()
}
