package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type row struct {
	ID     uint
	Status string
}

// stubFetcher serves a mutable slice of rows and counts calls.
type stubFetcher struct {
	mu    sync.Mutex
	rows  []row
	err   error
	calls int
}

func (s *stubFetcher) fetch(ctx context.Context) ([]row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]row, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *stubFetcher) set(rows []row) {
	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()
}

func (s *stubFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func rowID(r row) uint { return r.ID }

func waitUpdate(t *testing.T, c *Collection[row]) {
	t.Helper()
	select {
	case <-c.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an update")
	}
}

func TestCollection_InitialFetch(t *testing.T) {
	hub := NewHub()
	src := &stubFetcher{rows: []row{{ID: 1, Status: "pending"}}}
	col := NewCollection(hub, "absence_requests", src.fetch, rowID)

	if !col.Loading() {
		t.Fatal("collection must report loading before Start")
	}

	col.Start(context.Background())
	defer col.Close()
	waitUpdate(t, col)

	if col.Loading() {
		t.Fatal("still loading after the initial fetch")
	}
	items := col.Items()
	if len(items) != 1 || items[0].ID != 1 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestCollection_RefetchesOnSignal(t *testing.T) {
	hub := NewHub()
	src := &stubFetcher{rows: []row{{ID: 1, Status: "pending"}}}
	col := NewCollection(hub, "absence_requests", src.fetch, rowID)

	col.Start(context.Background())
	defer col.Close()
	waitUpdate(t, col)

	src.set([]row{{ID: 1, Status: "pending"}, {ID: 2, Status: "pending"}})
	hub.Publish("absence_requests")
	waitUpdate(t, col)

	if len(col.Items()) != 2 {
		t.Fatalf("signal did not trigger a refetch: %+v", col.Items())
	}
}

func TestCollection_PatchIsVisibleImmediately(t *testing.T) {
	hub := NewHub()
	src := &stubFetcher{rows: []row{{ID: 1, Status: "pending"}}}
	col := NewCollection(hub, "absence_requests", src.fetch, rowID)

	col.Start(context.Background())
	defer col.Close()
	waitUpdate(t, col)

	before := src.callCount()
	col.Patch(1, func(r *row) { r.Status = "approved" })

	// the patched row shows up synchronously, without another fetch
	items := col.Items()
	if items[0].Status != "approved" {
		t.Fatalf("patch not applied: %+v", items)
	}
	if src.callCount() != before {
		t.Fatal("patch must not fetch")
	}
}

func TestCollection_Remove(t *testing.T) {
	hub := NewHub()
	src := &stubFetcher{rows: []row{{ID: 1}, {ID: 2}}}
	col := NewCollection(hub, "absence_requests", src.fetch, rowID)

	col.Start(context.Background())
	defer col.Close()
	waitUpdate(t, col)

	col.Remove(1)

	items := col.Items()
	if len(items) != 1 || items[0].ID != 2 {
		t.Fatalf("remove failed: %+v", items)
	}
}

func TestCollection_FetchErrorSurfaces(t *testing.T) {
	hub := NewHub()
	boom := errors.New("boom")
	src := &stubFetcher{err: boom}
	col := NewCollection(hub, "absence_requests", src.fetch, rowID)

	col.Start(context.Background())
	defer col.Close()
	waitUpdate(t, col)

	if !errors.Is(col.Err(), boom) {
		t.Fatalf("err = %v, want boom", col.Err())
	}
	if col.Loading() {
		t.Fatal("loading must clear even on error")
	}
}

func TestCollection_SetFetchChangesScope(t *testing.T) {
	hub := NewHub()
	src := &stubFetcher{rows: []row{{ID: 1, Status: "pending"}, {ID: 2, Status: "approved"}}}
	col := NewCollection(hub, "absence_requests", src.fetch, rowID)

	col.Start(context.Background())
	defer col.Close()
	waitUpdate(t, col)

	col.SetFetch(func(ctx context.Context) ([]row, error) {
		all, err := src.fetch(ctx)
		if err != nil {
			return nil, err
		}
		var pending []row
		for _, r := range all {
			if r.Status == "pending" {
				pending = append(pending, r)
			}
		}
		return pending, nil
	})
	col.Refetch(context.Background())

	items := col.Items()
	if len(items) != 1 || items[0].Status != "pending" {
		t.Fatalf("scope change not applied: %+v", items)
	}
}

func TestCollection_CloseUnsubscribes(t *testing.T) {
	hub := NewHub()
	src := &stubFetcher{rows: []row{{ID: 1}}}
	col := NewCollection(hub, "absence_requests", src.fetch, rowID)

	col.Start(context.Background())
	waitUpdate(t, col)
	col.Close()

	before := src.callCount()
	hub.Publish("absence_requests")
	time.Sleep(50 * time.Millisecond)
	if src.callCount() != before {
		t.Fatal("fetched after Close")
	}
}

func TestCollection_DiscardsResultAfterCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &stubFetcher{rows: []row{{ID: 1}}}
	col := NewCollection(hub, "absence_requests", src.fetch, rowID)

	// Refetch against a dead context must not overwrite state
	col.Refetch(ctx)

	if len(col.Items()) != 0 {
		t.Fatal("result from a cancelled fetch was applied")
	}
	if !col.Loading() {
		t.Fatal("loading state must be left for the owner to resolve")
	}
}
