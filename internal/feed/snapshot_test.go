package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory Source whose access counts are observable.
type fakeSource struct {
	mu       sync.Mutex
	rows     map[uint64]Row
	rowCalls int
	allCalls int
	failRow  bool
	gate     chan struct{} // when set, FetchRow blocks until it closes
}

func newFakeSource(rows ...Row) *fakeSource {
	m := make(map[uint64]Row, len(rows))
	for _, r := range rows {
		m[r.ID] = r
	}
	return &fakeSource{rows: m}
}

func (s *fakeSource) FetchRow(_ context.Context, id uint64) (Row, bool, error) {
	s.mu.Lock()
	s.rowCalls++
	gate := s.gate
	if s.failRow {
		s.mu.Unlock()
		return Row{}, false, errors.New("fetch row failed")
	}
	r, ok := s.rows[id]
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return r, ok, nil
}

func (s *fakeSource) FetchAll(context.Context) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allCalls++
	out := make([]Row, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeSource) set(r Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[r.ID] = r
}

func (s *fakeSource) del(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
}

func (s *fakeSource) rowCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowCalls
}

func (s *fakeSource) allCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allCalls
}

func row(id uint64, name string, at time.Time) Row {
	data, _ := json.Marshal(map[string]any{"id": id, "name": name})
	return Row{ID: id, Data: data, CreatedAt: at}
}

func snapshotIDs(sv *SnapshotView) []uint64 {
	ids := []uint64{}
	for _, r := range sv.Rows() {
		ids = append(ids, r.ID)
	}
	return ids
}

// waitIDs polls until the snapshot settles on want; patches apply on the
// view's worker goroutine, not inline with Publish.
func waitIDs(t *testing.T, sv *SnapshotView, want []uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		got := snapshotIDs(sv)
		if len(got) != len(want) {
			return false
		}
		for i := range got {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
}

func TestSnapshotView_InitialLoadOrdersNewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeSource(
		row(1, "a", base),
		row(2, "b", base.Add(time.Hour)),
		row(3, "c", base.Add(2*time.Hour)),
	)
	h := NewHub()
	sv, err := NewSnapshotView(context.Background(), h, "leads", src)
	require.NoError(t, err)
	defer sv.Close()

	assert.Equal(t, []uint64{3, 2, 1}, snapshotIDs(sv))
	assert.Equal(t, 1, src.allCallCount())
}

func TestSnapshotView_InsertPatchesOneRow(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeSource(row(1, "a", base))
	h := NewHub()
	sv, err := NewSnapshotView(context.Background(), h, "leads", src)
	require.NoError(t, err)
	defer sv.Close()

	src.set(row(2, "b", base.Add(time.Hour)))
	h.Publish(ChangeEvent{Op: OpInsert, Table: "leads", RowID: 2})

	waitIDs(t, sv, []uint64{2, 1})
	assert.Equal(t, 1, src.rowCallCount(), "insert should cost exactly one row fetch")
	assert.Equal(t, 1, src.allCallCount(), "insert must not trigger a full reload")
}

func TestSnapshotView_UpdateReplacesRow(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeSource(row(1, "a", base), row(2, "b", base.Add(time.Hour)))
	h := NewHub()
	sv, err := NewSnapshotView(context.Background(), h, "leads", src)
	require.NoError(t, err)
	defer sv.Close()

	src.set(row(1, "renamed", base))
	h.Publish(ChangeEvent{Op: OpUpdate, Table: "leads", RowID: 1})

	require.Eventually(t, func() bool {
		rows := sv.Rows()
		if len(rows) != 2 {
			return false
		}
		var got map[string]any
		if err := json.Unmarshal(rows[1].Data, &got); err != nil {
			return false
		}
		return got["name"] == "renamed"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, src.rowCallCount())
}

func TestSnapshotView_DeleteDropsRowWithoutFetch(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeSource(row(1, "a", base), row(2, "b", base.Add(time.Hour)))
	h := NewHub()
	sv, err := NewSnapshotView(context.Background(), h, "leads", src)
	require.NoError(t, err)
	defer sv.Close()

	src.del(2)
	h.Publish(ChangeEvent{Op: OpDelete, Table: "leads", RowID: 2})

	waitIDs(t, sv, []uint64{1})
	assert.Equal(t, 0, src.rowCallCount(), "delete needs no source access")
}

func TestSnapshotView_VanishedRowTreatedAsDelete(t *testing.T) {
	// An update event for a row the source no longer returns (deleted, or
	// reassigned outside the viewer's scope) must remove it.
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeSource(row(1, "a", base))
	h := NewHub()
	sv, err := NewSnapshotView(context.Background(), h, "leads", src)
	require.NoError(t, err)
	defer sv.Close()

	src.del(1)
	h.Publish(ChangeEvent{Op: OpUpdate, Table: "leads", RowID: 1})

	waitIDs(t, sv, []uint64{})
}

func TestSnapshotView_FetchFailureFallsBackToReload(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeSource(row(1, "a", base))
	h := NewHub()
	sv, err := NewSnapshotView(context.Background(), h, "leads", src)
	require.NoError(t, err)
	defer sv.Close()

	src.set(row(2, "b", base.Add(time.Hour)))
	src.failRow = true
	h.Publish(ChangeEvent{Op: OpInsert, Table: "leads", RowID: 2})

	// The reload path converges to the same end state a refetch would.
	waitIDs(t, sv, []uint64{2, 1})
	assert.Equal(t, 2, src.allCallCount(), "initial load plus one fallback reload")
}

func TestSnapshotView_OneSourceAccessPerEvent(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeSource()
	h := NewHub()
	sv, err := NewSnapshotView(context.Background(), h, "leads", src)
	require.NoError(t, err)
	defer sv.Close()

	const n = 10
	for i := uint64(1); i <= n; i++ {
		src.set(row(i, fmt.Sprintf("lead-%d", i), base.Add(time.Duration(i)*time.Minute)))
		h.Publish(ChangeEvent{Op: OpInsert, Table: "leads", RowID: i})
	}

	require.Eventually(t, func() bool {
		return len(sv.Rows()) == n && src.rowCallCount() == n
	}, time.Second, 5*time.Millisecond, "no batching, no extra refetches")
	assert.Equal(t, 1, src.allCallCount())
}

func TestSnapshotView_ChangesSignalsAfterPatch(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeSource()
	h := NewHub()
	sv, err := NewSnapshotView(context.Background(), h, "leads", src)
	require.NoError(t, err)
	defer sv.Close()

	src.set(row(1, "a", base))
	h.Publish(ChangeEvent{Op: OpInsert, Table: "leads", RowID: 1})

	select {
	case <-sv.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected a change signal after an applied patch")
	}
}

func TestSnapshotView_PublishNeverWaitsOnSource(t *testing.T) {
	// The hub contract forbids blocking callbacks: a write handler's Publish
	// must return even while this view's source fetch is still in flight.
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeSource(row(1, "a", base))
	h := NewHub()
	sv, err := NewSnapshotView(context.Background(), h, "leads", src)
	require.NoError(t, err)
	defer sv.Close()

	gate := make(chan struct{})
	src.mu.Lock()
	src.gate = gate
	src.mu.Unlock()

	src.set(row(2, "b", base.Add(time.Hour)))
	published := make(chan struct{})
	go func() {
		h.Publish(ChangeEvent{Op: OpInsert, Table: "leads", RowID: 2})
		close(published)
	}()

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on the snapshot's source fetch")
	}

	close(gate)
	waitIDs(t, sv, []uint64{2, 1})
}

func TestSnapshotView_QueueOverflowResyncs(t *testing.T) {
	// More events than the queue holds must end in a full resync, never in a
	// silently missing row.
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := newFakeSource()
	h := NewHub()
	sv, err := NewSnapshotView(context.Background(), h, "leads", src)
	require.NoError(t, err)
	defer sv.Close()

	gate := make(chan struct{})
	src.mu.Lock()
	src.gate = gate
	src.mu.Unlock()

	const n = 300 // past the queue's capacity while the worker is gated
	for i := uint64(1); i <= n; i++ {
		src.set(row(i, fmt.Sprintf("lead-%d", i), base.Add(time.Duration(i)*time.Minute)))
		h.Publish(ChangeEvent{Op: OpInsert, Table: "leads", RowID: i})
	}
	close(gate)

	require.Eventually(t, func() bool { return len(sv.Rows()) == n },
		2*time.Second, 5*time.Millisecond)
}

func TestSnapshotView_CloseDetachesFromHub(t *testing.T) {
	src := newFakeSource()
	h := NewHub()
	sv, err := NewSnapshotView(context.Background(), h, "leads", src)
	require.NoError(t, err)
	require.Equal(t, 1, h.SubscriberCount("leads"))

	sv.Close()
	sv.Close() // idempotent
	assert.Equal(t, 0, h.SubscriberCount("leads"))
}
