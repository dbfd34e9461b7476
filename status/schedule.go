package status

import (
	"sort"
	"sync"
	"time"
)

const DefaultMaxHistorySize = 100

// InsertMode controls how InsertMany merges a sequence into a schedule.
type InsertMode int

const (
	// ModeAdd merges the given entries into the existing history.
	ModeAdd InsertMode = iota
	// ModeReplace drops the existing history first.
	ModeReplace
)

// ChangeFunc is called after the schedule head changed value, with the
// previous and the new head entry.
type ChangeFunc[T comparable] func(old, new Entry[T])

// Schedule is a bounded status history for one entity and one status
// dimension, ordered descending by timestamp. The head entry is the current
// status. A schedule is never empty: construction seeds it with an initial
// value.
//
// Subscribers are invoked synchronously on the inserting goroutine, in
// registration order, after the internal lock is released, so a subscriber
// may insert into another schedule without deadlocking.
type Schedule[T comparable] struct {
	mu          sync.Mutex
	entries     []Entry[T] // newest first
	maxSize     int
	subscribers []ChangeFunc[T]
}

// NewSchedule seeds a schedule with an initial value at the given time.
// A maxSize below 1 falls back to DefaultMaxHistorySize.
func NewSchedule[T comparable](initial T, at time.Time, maxSize int) *Schedule[T] {
	if maxSize < 1 {
		maxSize = DefaultMaxHistorySize
	}
	return &Schedule[T]{
		entries: []Entry[T]{NewEntry(initial, at, "")},
		maxSize: maxSize,
	}
}

// Subscribe registers a head-change callback. Not safe to call concurrently
// with Insert; wiring happens at entity construction time.
func (s *Schedule[T]) Subscribe(fn ChangeFunc[T]) {
	if fn == nil {
		return
	}
	s.subscribers = append(s.subscribers, fn)
}

// Current returns the head entry.
func (s *Schedule[T]) Current() Entry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[0]
}

// Len returns the number of retained entries.
func (s *Schedule[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Insert records a status value at the given timestamp. An entry at an
// already known timestamp is replaced, never duplicated; the history is
// trimmed to the configured bound by evicting the oldest entry. The change
// callbacks fire before Insert returns, and only when the head value
// changed. Out-of-order timestamps are legal and only affect the head when
// the inserted timestamp is the latest.
//
// Insert returns the head before and after the insert and whether the head
// value changed.
func (s *Schedule[T]) Insert(value T, timestamp time.Time, context string) (old, head Entry[T], changed bool) {
	s.mu.Lock()
	old = s.entries[0]
	s.insertLocked(NewEntry(value, timestamp, context))
	head = s.entries[0]
	subscribers := s.subscribers
	s.mu.Unlock()

	if head.Value == old.Value {
		return old, head, false
	}
	for _, fn := range subscribers {
		fn(old, head)
	}
	return old, head, true
}

// InsertMany merges an entry sequence. ModeReplace clears the history first;
// replacing with an empty sequence is rejected because a schedule must stay
// non-empty. The change callbacks fire at most once, comparing the head
// before and after the whole merge.
func (s *Schedule[T]) InsertMany(entries []Entry[T], mode InsertMode) error {
	if mode == ModeReplace && len(entries) == 0 {
		return Validationf("replacing status history with an empty sequence")
	}
	s.mu.Lock()
	oldHead := s.entries[0]
	if mode == ModeReplace {
		s.entries = s.entries[:0]
		sorted := make([]Entry[T], len(entries))
		copy(sorted, entries)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})
		s.entries = append(s.entries, sorted[0])
		entries = sorted[1:]
	}
	for _, e := range entries {
		s.insertLocked(e)
	}
	newHead := s.entries[0]
	subscribers := s.subscribers
	s.mu.Unlock()

	if newHead.Value != oldHead.Value {
		for _, fn := range subscribers {
			fn(oldHead, newHead)
		}
	}
	return nil
}

func (s *Schedule[T]) insertLocked(entry Entry[T]) {
	for i, e := range s.entries {
		if e.Timestamp.Equal(entry.Timestamp) {
			s.entries[i] = entry
			return
		}
	}
	pos := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].Timestamp.Before(entry.Timestamp)
	})
	s.entries = append(s.entries, Entry[T]{})
	copy(s.entries[pos+1:], s.entries[pos:])
	s.entries[pos] = entry
	if len(s.entries) > s.maxSize {
		s.entries = s.entries[:s.maxSize]
	}
}

// History returns retained entries newest first, after skipping skip entries
// and keeping at most take (take < 1 means all). Entries whose rendered
// timestamps collide at second precision collapse to the first occurrence,
// and historySize then bounds the collapsed result (historySize < 1 means
// all). The collapse is a lossy rendering rule for the wire format, not a
// property of the stored history.
func (s *Schedule[T]) History(skip, take, historySize int) []Entry[T] {
	s.mu.Lock()
	snapshot := make([]Entry[T], len(s.entries))
	copy(snapshot, s.entries)
	s.mu.Unlock()

	if skip >= len(snapshot) {
		return nil
	}
	snapshot = snapshot[skip:]
	if take > 0 && take < len(snapshot) {
		snapshot = snapshot[:take]
	}

	seen := make(map[string]bool, len(snapshot))
	result := make([]Entry[T], 0, len(snapshot))
	for _, e := range snapshot {
		rendered := e.Rendered()
		if seen[rendered] {
			continue
		}
		seen[rendered] = true
		result = append(result, e)
		if historySize > 0 && len(result) == historySize {
			break
		}
	}
	return result
}
