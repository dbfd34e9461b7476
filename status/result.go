package status

import (
	"context"
	"errors"
)

// Outcome classifies the result of applying one item of a batch.
type Outcome string

const (
	// OutcomeSuccess means the operation completed with an observable effect.
	OutcomeSuccess Outcome = "Success"
	// OutcomeNoOperation means the target was already in the desired state.
	OutcomeNoOperation Outcome = "NoOperation"
	// OutcomeError means the operation was rejected.
	OutcomeError Outcome = "Error"
	// OutcomeTimeout means the operation did not complete within the
	// caller-supplied deadline. Distinct from OutcomeError because timeouts
	// are the retryable class.
	OutcomeTimeout Outcome = "Timeout"
)

// ErrNoOperation is returned by batch operations to report an idempotent
// no-op, so callers can tell "nothing changed" from "something changed".
var ErrNoOperation = errors.New("no operation")

// ItemResult is the recorded outcome for one batch item.
type ItemResult[Item any] struct {
	Item    Item
	Outcome Outcome
	Err     error
}

// Result is the immutable outcome of a batch. The aggregate is always a
// projection of Items recomputed on demand, so it cannot drift from the
// per-item detail.
type Result[Item any] struct {
	Items []ItemResult[Item]
}

// Counts projects the per-item outcomes into aggregate counts.
func (r Result[Item]) Counts() map[Outcome]int {
	counts := make(map[Outcome]int, 4)
	for _, item := range r.Items {
		counts[item.Outcome]++
	}
	return counts
}

// PartialFailure reports whether the batch carries at least one Error or
// Timeout item next to completed ones. A batch is never rolled back.
func (r Result[Item]) PartialFailure() bool {
	failed, completed := 0, 0
	for _, item := range r.Items {
		switch item.Outcome {
		case OutcomeError, OutcomeTimeout:
			failed++
		default:
			completed++
		}
	}
	return failed > 0 && completed > 0
}

// Succeeded reports whether no item failed.
func (r Result[Item]) Succeeded() bool {
	for _, item := range r.Items {
		if item.Outcome == OutcomeError || item.Outcome == OutcomeTimeout {
			return false
		}
	}
	return true
}

// Apply invokes op for every item independently: one item's failure never
// prevents the remaining items from being attempted. Per-item errors are
// captured in the item outcome and never returned from Apply itself.
func Apply[Item any](ctx context.Context, items []Item, op func(context.Context, Item) error) Result[Item] {
	result := Result[Item]{Items: make([]ItemResult[Item], 0, len(items))}
	for _, item := range items {
		err := op(ctx, item)
		outcome := Classify(err)
		if outcome == OutcomeSuccess || outcome == OutcomeNoOperation {
			err = nil
		}
		result.Items = append(result.Items, ItemResult[Item]{
			Item:    item,
			Outcome: outcome,
			Err:     err,
		})
	}
	return result
}

// Classify maps an operation error to its outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrNoOperation):
		return OutcomeNoOperation
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		KindOf(err) == FaultTimeout:
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}
