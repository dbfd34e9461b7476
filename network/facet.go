package network

import (
	"sync"
	"time"

	"wwcp/status"
	"wwcp/types"
)

// ChangeListener receives a head transition together with the tracking id of
// the physical event that caused it, so one event can be traced through the
// whole cascade.
type ChangeListener[T comparable] func(timestamp time.Time, trackingID string, old, new status.Entry[T])

// statusFacet is the status-schedule capability shared by all entity kinds.
// An entity has one facet per status dimension it tracks.
type statusFacet[T comparable] struct {
	schedule *status.Schedule[T]

	mu        sync.Mutex
	listeners []ChangeListener[T]
}

func newStatusFacet[T comparable](initial T, at time.Time, maxSize int) *statusFacet[T] {
	return &statusFacet[T]{
		schedule: status.NewSchedule(initial, at, maxSize),
	}
}

func (f *statusFacet[T]) subscribe(listener ChangeListener[T]) {
	if listener == nil {
		return
	}
	f.mu.Lock()
	f.listeners = append(f.listeners, listener)
	f.mu.Unlock()
}

// set inserts into the schedule and, on a head value change, notifies the
// listeners in registration order, outside any lock, before returning.
func (f *statusFacet[T]) set(value T, at time.Time, trackingID, context string) (old, head status.Entry[T], changed bool) {
	old, head, changed = f.schedule.Insert(value, at, context)
	if !changed {
		return old, head, false
	}
	f.mu.Lock()
	listeners := make([]ChangeListener[T], len(f.listeners))
	copy(listeners, f.listeners)
	f.mu.Unlock()
	for _, listener := range listeners {
		listener(at, trackingID, old, head)
	}
	return old, head, true
}

func (f *statusFacet[T]) current() status.Entry[T] {
	return f.schedule.Current()
}

func (f *statusFacet[T]) history(skip, take, historySize int) []status.Entry[T] {
	return f.schedule.History(skip, take, historySize)
}

// childSet is the containment capability: an ordered, copy-on-write set of
// child entities keyed by folded id. Reads get a stable snapshot and never
// observe a half-attached child.
type childSet[C any] struct {
	mu    sync.RWMutex
	items []C
	index map[string]C
}

func newChildSet[C any]() *childSet[C] {
	return &childSet[C]{index: make(map[string]C)}
}

func (c *childSet[C]) add(id string, child C) error {
	key := types.Key(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.index[key]; exists {
		return status.Conflictf("id %s already exists", id)
	}
	items := make([]C, len(c.items), len(c.items)+1)
	copy(items, c.items)
	c.items = append(items, child)
	c.index[key] = child
	return nil
}

func (c *childSet[C]) get(id string) (C, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	child, ok := c.index[types.Key(id)]
	return child, ok
}

func (c *childSet[C]) remove(id string, same func(C) bool) error {
	key := types.Key(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.index[key]; !exists {
		return status.NotFoundf("id %s not found", id)
	}
	delete(c.index, key)
	items := make([]C, 0, len(c.items)-1)
	for _, child := range c.items {
		if !same(child) {
			items = append(items, child)
		}
	}
	c.items = items
	return nil
}

func (c *childSet[C]) snapshot() []C {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items
}

func (c *childSet[C]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
