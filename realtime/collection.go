package realtime

import (
	"context"
	"sync"
)

// Fetcher loads the current server-side state of a scoped list.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Collection holds a live in-memory copy of one scoped list. It fetches once
// on Start, refetches the whole list on every hub signal for its table, and
// lets mutation paths patch the copy immediately so callers see the change
// before the next refetch lands.
//
// A collection's state is only ever written by its own run loop and by
// Patch/Remove; a fetch resolving after the context is cancelled is
// discarded.
type Collection[T any] struct {
	hub   *Hub
	table string
	idOf  func(T) uint

	mu      sync.RWMutex
	fetch   Fetcher[T]
	items   []T
	err     error
	loading bool

	updates chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewCollection[T any](hub *Hub, table string, fetch Fetcher[T], idOf func(T) uint) *Collection[T] {
	return &Collection[T]{
		hub:     hub,
		table:   table,
		fetch:   fetch,
		idOf:    idOf,
		loading: true,
		updates: make(chan struct{}, 1),
	}
}

// Start performs the initial fetch and begins refetching on change signals.
// Close (or cancelling ctx) tears the loop down.
func (c *Collection[T]) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	signals, unsubscribe := c.hub.Subscribe(c.table)
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		defer unsubscribe()

		c.Refetch(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-signals:
				c.Refetch(ctx)
			}
		}
	}()
}

// Refetch replaces the copy with fresh server state. Exposed so a caller can
// retry after an error without waiting for the next signal.
func (c *Collection[T]) Refetch(ctx context.Context) {
	c.mu.Lock()
	c.loading = true
	fetch := c.fetch
	c.mu.Unlock()

	rows, err := fetch(ctx)

	if ctx.Err() != nil {
		// torn down while in flight; drop the result
		return
	}

	c.mu.Lock()
	if err != nil {
		c.err = err
	} else {
		c.items = rows
		c.err = nil
	}
	c.loading = false
	c.mu.Unlock()
	c.signal()
}

// SetFetch swaps the scope (e.g. a changed status filter). Takes effect on
// the next Refetch.
func (c *Collection[T]) SetFetch(fetch Fetcher[T]) {
	c.mu.Lock()
	c.fetch = fetch
	c.mu.Unlock()
}

// Items returns a snapshot copy of the collection.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Collection[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Patch applies an optimistic update to the row with the given id, ahead of
// any refetch or push signal.
func (c *Collection[T]) Patch(id uint, mutate func(*T)) {
	c.mu.Lock()
	for i := range c.items {
		if c.idOf(c.items[i]) == id {
			mutate(&c.items[i])
			break
		}
	}
	c.mu.Unlock()
	c.signal()
}

// Remove drops the row with the given id from the copy.
func (c *Collection[T]) Remove(id uint) {
	c.mu.Lock()
	kept := c.items[:0]
	for _, it := range c.items {
		if c.idOf(it) != id {
			kept = append(kept, it)
		}
	}
	c.items = kept
	c.mu.Unlock()
	c.signal()
}

// Updates signals whenever the snapshot changed; consecutive changes
// coalesce.
func (c *Collection[T]) Updates() <-chan struct{} {
	return c.updates
}

func (c *Collection[T]) signal() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// Close cancels the run loop and unsubscribes from the hub.
func (c *Collection[T]) Close() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
}
