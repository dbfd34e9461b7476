package status

import "time"

// Entry is one timestamped status value. Entries are never mutated after
// creation; a schedule replaces entries instead of rewriting them.
type Entry[T comparable] struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Value     T         `json:"value" bson:"value"`
	Context   string    `json:"context,omitempty" bson:"context,omitempty"`
}

func NewEntry[T comparable](value T, timestamp time.Time, context string) Entry[T] {
	return Entry[T]{
		Timestamp: timestamp,
		Value:     value,
		Context:   context,
	}
}

// Rendered returns the wire rendering of the entry timestamp. The roaming
// wire format carries second precision only, so two entries within the same
// second render identically.
func (e Entry[T]) Rendered() string {
	return e.Timestamp.UTC().Format(time.RFC3339)
}

func (e Entry[T]) Equal(other Entry[T]) bool {
	return e.Timestamp.Equal(other.Timestamp) && e.Value == other.Value && e.Context == other.Context
}
