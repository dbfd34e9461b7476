package status

// Update is an immutable record of one status transition for one entity,
// the unit of work sent to roaming partners. Old is nil for the first
// report of an entity the partner has never seen.
type Update[ID comparable, T comparable] struct {
	ID      ID        `json:"id" bson:"id"`
	Old     *Entry[T] `json:"oldStatus,omitempty" bson:"old_status,omitempty"`
	New     Entry[T]  `json:"newStatus" bson:"new_status"`
	Context string    `json:"context,omitempty" bson:"context,omitempty"`
}

// Diff builds the update for a head transition. old is the head before the
// insert that triggered the diff.
func Diff[ID comparable, T comparable](id ID, old *Entry[T], new Entry[T]) Update[ID, T] {
	var oldCopy *Entry[T]
	if old != nil {
		o := *old
		oldCopy = &o
	}
	return Update[ID, T]{
		ID:  id,
		Old: oldCopy,
		New: new,
	}
}

// Equal compares updates by value over (ID, New, Old, Context), so identical
// updates built by different sources compare equal.
func (u Update[ID, T]) Equal(other Update[ID, T]) bool {
	if u.ID != other.ID || u.Context != other.Context || !u.New.Equal(other.New) {
		return false
	}
	if (u.Old == nil) != (other.Old == nil) {
		return false
	}
	if u.Old != nil && !u.Old.Equal(*other.Old) {
		return false
	}
	return true
}

// Coalesce folds multiple updates for the same entity into one update per
// id carrying the oldest old status and the newest new status. Updates for
// distinct ids keep their first-seen order. Whether to coalesce is the batch
// builder's decision: some partners need every transition, others only the
// net effect.
func Coalesce[ID comparable, T comparable](updates []Update[ID, T]) []Update[ID, T] {
	if len(updates) < 2 {
		return updates
	}
	order := make([]ID, 0, len(updates))
	folded := make(map[ID]Update[ID, T], len(updates))
	for _, u := range updates {
		prev, ok := folded[u.ID]
		if !ok {
			order = append(order, u.ID)
			folded[u.ID] = u
			continue
		}
		merged := Update[ID, T]{
			ID:      u.ID,
			Old:     prev.Old,
			New:     u.New,
			Context: u.Context,
		}
		if u.New.Timestamp.Before(prev.New.Timestamp) {
			merged.New = prev.New
			merged.Context = prev.Context
		}
		if prev.Old != nil && u.Old != nil && u.Old.Timestamp.Before(prev.Old.Timestamp) {
			merged.Old = u.Old
		}
		folded[u.ID] = merged
	}
	result := make([]Update[ID, T], 0, len(order))
	for _, id := range order {
		result = append(result, folded[id])
	}
	return result
}
