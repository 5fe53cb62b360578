package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardline/operator-console/internal/model"
)

func TestViewportOpenResetsState(t *testing.T) {
	v := NewViewport()
	now := time.Now()

	epoch := v.Open("s1")
	require.True(t, v.SetHistory(epoch, []model.Message{makeGuestMessage("m1", "s1", now)}))
	require.Len(t, v.Messages(), 1)

	epoch2 := v.Open("s2")
	assert.Greater(t, epoch2, epoch)
	assert.Equal(t, StateLoading, v.State())
	assert.Empty(t, v.Messages())
}

func TestViewportStaleHistoryDiscarded(t *testing.T) {
	v := NewViewport()
	now := time.Now()

	epochA := v.Open("a")
	v.Open("b")

	ok := v.SetHistory(epochA, []model.Message{makeGuestMessage("m1", "a", now)})
	assert.False(t, ok, "history for a superseded epoch must not land")
	assert.Equal(t, StateLoading, v.State())
}

func TestViewportAppendOnlyOpenSession(t *testing.T) {
	v := NewViewport()
	now := time.Now()

	epoch := v.Open("a")
	v.SetHistory(epoch, nil)

	assert.True(t, v.Append(makeGuestMessage("m1", "a", now)))
	assert.False(t, v.Append(makeGuestMessage("m2", "b", now)))
	require.Len(t, v.Messages(), 1)
	assert.Equal(t, "m1", v.Messages()[0].ID)
}

func TestViewportBacklogMergedAfterHistory(t *testing.T) {
	v := NewViewport()
	now := time.Now()

	epoch := v.Open("a")

	// Pushes racing the history fetch are buffered, not shown yet.
	assert.False(t, v.Append(makeGuestMessage("m2", "a", now.Add(time.Second))))
	assert.False(t, v.Append(makeGuestMessage("m3", "a", now.Add(2*time.Second))))

	// History already contains m2; the merge must not duplicate it.
	history := []model.Message{
		makeGuestMessage("m1", "a", now),
		makeGuestMessage("m2", "a", now.Add(time.Second)),
	}
	require.True(t, v.SetHistory(epoch, history))

	got := v.Messages()
	require.Len(t, got, 3)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "m2", got[1].ID)
	assert.Equal(t, "m3", got[2].ID)
}

func TestViewportReopenReplacesHistory(t *testing.T) {
	v := NewViewport()
	now := time.Now()

	epoch := v.Open("a")
	v.SetHistory(epoch, []model.Message{
		makeGuestMessage("m1", "a", now),
		makeGuestMessage("m2", "a", now.Add(time.Second)),
	})

	v.Open("b")
	epoch = v.Open("a")
	require.True(t, v.SetHistory(epoch, []model.Message{
		makeGuestMessage("m1", "a", now),
		makeGuestMessage("m2", "a", now.Add(time.Second)),
	}))

	// Switching away and back neither duplicates nor drops history.
	got := v.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "m2", got[1].ID)
}

func TestViewportAppendInArrivalOrder(t *testing.T) {
	v := NewViewport()
	now := time.Now()

	epoch := v.Open("a")
	v.SetHistory(epoch, nil)

	// Arrival order wins even when timestamps disagree.
	v.Append(makeGuestMessage("late", "a", now.Add(time.Minute)))
	v.Append(makeGuestMessage("early", "a", now))

	got := v.Messages()
	require.Len(t, got, 2)
	assert.Equal(t, "late", got[0].ID)
	assert.Equal(t, "early", got[1].ID)
}
