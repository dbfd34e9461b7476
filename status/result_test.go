package status_test

import (
	"context"
	"testing"

	"wwcp/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_BatchIndependence(t *testing.T) {
	items := []string{"a", "b", "c"}
	result := status.Apply(context.Background(), items, func(_ context.Context, item string) error {
		if item == "b" {
			return status.NotFoundf("unknown entity %s", item)
		}
		return nil
	})

	require.Len(t, result.Items, 3)
	assert.Equal(t, status.OutcomeSuccess, result.Items[0].Outcome)
	assert.Equal(t, status.OutcomeError, result.Items[1].Outcome)
	assert.Equal(t, status.OutcomeSuccess, result.Items[2].Outcome)
	assert.Equal(t, status.FaultNotFound, status.KindOf(result.Items[1].Err))

	counts := result.Counts()
	assert.Equal(t, 2, counts[status.OutcomeSuccess])
	assert.Equal(t, 1, counts[status.OutcomeError])
	assert.True(t, result.PartialFailure())
	assert.False(t, result.Succeeded())
}

func TestApply_NoOperation(t *testing.T) {
	result := status.Apply(context.Background(), []int{1, 2}, func(_ context.Context, i int) error {
		if i == 1 {
			return status.ErrNoOperation
		}
		return nil
	})
	assert.Equal(t, status.OutcomeNoOperation, result.Items[0].Outcome)
	assert.NoError(t, result.Items[0].Err)
	assert.Equal(t, status.OutcomeSuccess, result.Items[1].Outcome)
	assert.True(t, result.Succeeded())
	assert.False(t, result.PartialFailure())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, status.OutcomeSuccess, status.Classify(nil))
	assert.Equal(t, status.OutcomeNoOperation, status.Classify(status.ErrNoOperation))
	assert.Equal(t, status.OutcomeTimeout, status.Classify(context.DeadlineExceeded))
	assert.Equal(t, status.OutcomeTimeout, status.Classify(context.Canceled))
	assert.Equal(t, status.OutcomeTimeout, status.Classify(status.Timeoutf("partner did not answer")))
	assert.Equal(t, status.OutcomeError, status.Classify(status.Conflictf("already exists")))
	assert.Equal(t, status.OutcomeError, status.Classify(status.NotSupportedf("no implementation")))
}

func TestApply_CancelledContextStillVisitsAllItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	visited := 0
	result := status.Apply(ctx, []int{1, 2, 3}, func(ctx context.Context, _ int) error {
		visited++
		return ctx.Err()
	})
	assert.Equal(t, 3, visited)
	for _, item := range result.Items {
		assert.Equal(t, status.OutcomeTimeout, item.Outcome)
	}
}
