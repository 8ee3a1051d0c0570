package feed

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"
)

// Row is one table row as held by a SnapshotView.  Data carries the
// caller-facing JSON encoding; CreatedAt orders the snapshot newest-first,
// matching the list endpoints.
type Row struct {
	ID        uint64
	Data      json.RawMessage
	CreatedAt time.Time
}

// Source loads rows for a SnapshotView.  Implementations are expected to
// apply the caller's row-visibility scope, so FetchRow answering found=false
// covers both a deleted row and one the viewer may not see.
type Source interface {
	FetchRow(ctx context.Context, id uint64) (Row, bool, error)
	FetchAll(ctx context.Context) ([]Row, error)
}

// SnapshotView keeps a full, ordered snapshot of one table current by
// applying a minimal patch per change event: insert fetches the one new row
// and splices it in, update fetches and replaces, delete drops the row.  A
// failed single-row fetch falls back to a full reload, so the snapshot
// always converges to exactly what a full refetch would produce.
//
// Patches run on the view's own goroutine.  The hub callback only enqueues,
// so Publish never waits on a source fetch; if the queue overflows, the
// worker schedules a full reload instead of losing the dropped events.
type SnapshotView struct {
	table  string
	src    Source
	sub    *Subscription
	notify chan struct{}
	events chan ChangeEvent
	resync chan struct{}
	done   chan struct{}
	once   sync.Once

	mu   sync.RWMutex
	rows []Row
}

// NewSnapshotView loads the initial snapshot, subscribes to the hub and
// starts the patch worker.  Close must be called to release both.
func NewSnapshotView(ctx context.Context, hub *Hub, table string, src Source) (*SnapshotView, error) {
	rows, err := src.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	sv := &SnapshotView{
		table:  table,
		src:    src,
		notify: make(chan struct{}, 1),
		events: make(chan ChangeEvent, 256),
		resync: make(chan struct{}, 1),
		done:   make(chan struct{}),
		rows:   sortRows(rows),
	}
	sv.sub = hub.Subscribe(table, nil, sv.enqueue)
	go sv.run()
	return sv, nil
}

// Rows returns a copy of the current snapshot, newest first.
func (sv *SnapshotView) Rows() []Row {
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	out := make([]Row, len(sv.rows))
	copy(out, sv.rows)
	return out
}

// Changes signals after each applied patch.  The channel is coalescing:
// a slow reader sees at least one signal for any burst of events.
func (sv *SnapshotView) Changes() <-chan struct{} { return sv.notify }

// Close detaches the view from the hub and stops the patch worker.  Safe to
// call more than once.
func (sv *SnapshotView) Close() {
	sv.once.Do(func() {
		sv.sub.Close()
		close(sv.done)
	})
}

// enqueue is the hub callback.  It must not block: the event goes onto the
// buffered queue, and on overflow the view falls back to a full resync,
// which subsumes every dropped patch.
func (sv *SnapshotView) enqueue(ev ChangeEvent) {
	select {
	case sv.events <- ev:
	default:
		select {
		case sv.resync <- struct{}{}:
		default:
		}
	}
}

// run drains the queue, applying one patch per event.
func (sv *SnapshotView) run() {
	for {
		select {
		case <-sv.done:
			return
		case ev := <-sv.events:
			sv.apply(ev)
		case <-sv.resync:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			sv.reload(ctx)
			cancel()
			sv.signal()
		}
	}
}

// apply is the reconciliation contract: one event, one patch.
func (sv *SnapshotView) apply(ev ChangeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch ev.Op {
	case OpDelete:
		sv.remove(ev.RowID)
	case OpInsert, OpUpdate:
		row, found, err := sv.src.FetchRow(ctx, ev.RowID)
		if err != nil {
			// Fall back to a full reload so the snapshot still converges.
			sv.reload(ctx)
		} else if !found {
			sv.remove(ev.RowID)
		} else {
			sv.upsert(row)
		}
	default:
		return // unknown op, nothing to patch
	}

	sv.signal()
}

func (sv *SnapshotView) signal() {
	select {
	case sv.notify <- struct{}{}:
	default:
	}
}

func (sv *SnapshotView) remove(id uint64) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	for i, r := range sv.rows {
		if r.ID == id {
			sv.rows = append(sv.rows[:i], sv.rows[i+1:]...)
			return
		}
	}
}

func (sv *SnapshotView) upsert(row Row) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	for i, r := range sv.rows {
		if r.ID == row.ID {
			sv.rows[i] = row
			sv.rows = sortRows(sv.rows)
			return
		}
	}
	sv.rows = sortRows(append(sv.rows, row))
}

func (sv *SnapshotView) reload(ctx context.Context) {
	rows, err := sv.src.FetchAll(ctx)
	if err != nil {
		log.Printf("snapshot %s: reload failed: %v", sv.table, err)
		return // keep the stale snapshot, same as a failed refetch
	}
	sv.mu.Lock()
	sv.rows = sortRows(rows)
	sv.mu.Unlock()
}

func sortRows(rows []Row) []Row {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	return rows
}
