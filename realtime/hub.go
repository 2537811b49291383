// Package realtime keeps dashboard views eventually consistent with the
// database: a change hub fans out per-table "something changed" signals and
// live collections refetch on every signal.
package realtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var changeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "absence_change_events_total",
	Help: "Change signals published per table.",
}, []string{"table"})

// Hub broadcasts zero-payload change signals keyed by table. Subscriber
// channels are buffered with one slot, so bursts coalesce instead of
// queueing; subscribers refetch anyway.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registers for change signals on table. The returned func
// unsubscribes; it is the only required cleanup.
func (h *Hub) Subscribe(table string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[table] == nil {
		h.subs[table] = make(map[chan struct{}]struct{})
	}
	h.subs[table][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subs[table], ch)
		h.mu.Unlock()
	}
}

// Publish signals every subscriber of table without blocking.
func (h *Hub) Publish(table string) {
	changeEvents.WithLabelValues(table).Inc()

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[table] {
		select {
		case ch <- struct{}{}:
		default: // a signal is already pending; one refetch covers both
		}
	}
}
