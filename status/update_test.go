package status_test

import (
	"testing"
	"time"

	"wwcp/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_CapturesTransition(t *testing.T) {
	t1 := t0
	t2 := t0.Add(time.Minute)
	old := status.NewEntry("Available", t1, "")

	update := status.Diff("E1", &old, status.NewEntry("Offline", t2, ""))

	require.NotNil(t, update.Old)
	assert.Equal(t, "Available", update.Old.Value)
	assert.Equal(t, t1, update.Old.Timestamp)
	assert.Equal(t, "Offline", update.New.Value)
	assert.Equal(t, t2, update.New.Timestamp)

	// value equality against an independently built update
	other := status.Update[string, string]{
		ID:  "E1",
		Old: &old,
		New: status.NewEntry("Offline", t2, ""),
	}
	assert.True(t, update.Equal(other))
}

func TestDiff_FirstReportHasNoOld(t *testing.T) {
	update := status.Diff[string]("E1", nil, status.NewEntry("Available", t0, ""))
	assert.Nil(t, update.Old)
}

func TestUpdate_EqualMismatchedOld(t *testing.T) {
	old := status.NewEntry("Available", t0, "")
	a := status.Diff("E1", &old, status.NewEntry("Offline", t0.Add(time.Second), ""))
	b := status.Diff[string]("E1", nil, status.NewEntry("Offline", t0.Add(time.Second), ""))
	assert.False(t, a.Equal(b))
	assert.False(t, b.Equal(a))
}

func TestCoalesce_FoldsPerEntity(t *testing.T) {
	e1a := status.NewEntry("Available", t0, "")
	e1b := status.NewEntry("Occupied", t0.Add(time.Second), "")
	e1c := status.NewEntry("Faulted", t0.Add(2*time.Second), "")
	e2a := status.NewEntry("Available", t0, "")
	e2b := status.NewEntry("Offline", t0.Add(time.Second), "")

	updates := []status.Update[string, string]{
		status.Diff("E1", &e1a, e1b),
		status.Diff("E2", &e2a, e2b),
		status.Diff("E1", &e1b, e1c),
	}

	folded := status.Coalesce(updates)
	require.Len(t, folded, 2)

	// first-seen order preserved
	assert.Equal(t, "E1", folded[0].ID)
	assert.Equal(t, "E2", folded[1].ID)

	// oldest-old to newest-new for E1
	require.NotNil(t, folded[0].Old)
	assert.Equal(t, "Available", folded[0].Old.Value)
	assert.Equal(t, "Faulted", folded[0].New.Value)
}

func TestCoalesce_SingleUpdateUntouched(t *testing.T) {
	old := status.NewEntry("Available", t0, "")
	updates := []status.Update[string, string]{
		status.Diff("E1", &old, status.NewEntry("Offline", t0.Add(time.Second), "")),
	}
	assert.Equal(t, updates, status.Coalesce(updates))
}
