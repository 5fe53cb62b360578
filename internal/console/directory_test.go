package console

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardline/operator-console/internal/model"
)

func makeSession(id string, unread int, lastActivity time.Time) model.ChatSession {
	return model.ChatSession{
		ID:           id,
		GuestName:    "Guest " + id,
		IsActive:     true,
		UnreadCount:  unread,
		LastActivity: lastActivity,
		CreatedAt:    lastActivity.Add(-time.Hour),
	}
}

func makeGuestMessage(id, sessionID string, at time.Time) model.Message {
	return model.Message{
		ID:         id,
		SessionID:  sessionID,
		Content:    "message " + id,
		SenderType: model.SenderGuest,
		SenderName: "Visitor",
		CreatedAt:  at,
	}
}

func TestDirectoryApplySnapshotReplacesEverything(t *testing.T) {
	d := NewDirectory()
	now := time.Now()

	d.ApplySnapshot([]model.ChatSession{
		makeSession("old-1", 3, now),
		makeSession("old-2", 0, now),
	})
	require.Equal(t, 2, d.Len())

	d.ApplySnapshot([]model.ChatSession{
		makeSession("new-1", 1, now),
	})

	assert.Equal(t, 1, d.Len())
	_, ok := d.Get("old-1")
	assert.False(t, ok, "stale entries must not survive a snapshot")
	s, ok := d.Get("new-1")
	require.True(t, ok)
	assert.Equal(t, 1, s.UnreadCount)
}

func TestDirectoryApplyIncomingUpdatesInPlace(t *testing.T) {
	d := NewDirectory()
	now := time.Now()
	d.ApplySnapshot([]model.ChatSession{makeSession("s1", 0, now)})

	msg := makeGuestMessage("m1", "s1", now.Add(time.Minute))
	known := d.ApplyIncoming("s1", msg)

	require.True(t, known)
	s, ok := d.Get("s1")
	require.True(t, ok)
	assert.Equal(t, 1, s.UnreadCount)
	require.NotNil(t, s.LatestMessage)
	assert.Equal(t, "m1", s.LatestMessage.ID)
	assert.True(t, s.LastActivity.Equal(msg.CreatedAt))
}

func TestDirectoryTwoQuickMessages(t *testing.T) {
	d := NewDirectory()
	now := time.Now()
	d.ApplySnapshot([]model.ChatSession{makeSession("s1", 2, now)})

	first := makeGuestMessage("m1", "s1", now.Add(time.Second))
	second := makeGuestMessage("m2", "s1", now.Add(2*time.Second))
	d.ApplyIncoming("s1", first)
	d.ApplyIncoming("s1", second)

	s, _ := d.Get("s1")
	assert.Equal(t, 4, s.UnreadCount, "base+2")
	require.NotNil(t, s.LatestMessage)
	assert.Equal(t, "m2", s.LatestMessage.ID)
}

func TestDirectoryMarkReadIdempotent(t *testing.T) {
	d := NewDirectory()
	now := time.Now()
	d.ApplySnapshot([]model.ChatSession{makeSession("s1", 5, now)})

	d.MarkRead("s1")
	d.MarkRead("s1")

	s, _ := d.Get("s1")
	assert.Equal(t, 0, s.UnreadCount)

	// Unknown session is a no-op, not a panic.
	d.MarkRead("missing")
}

func TestDirectoryUnknownSessionBufferedAndReplayed(t *testing.T) {
	d := NewDirectory()
	now := time.Now()

	msg := makeGuestMessage("m1", "ghost", now.Add(time.Minute))
	known := d.ApplyIncoming("ghost", msg)
	require.False(t, known)
	assert.Equal(t, 0, d.Len())

	// Snapshot names the session but predates the buffered message:
	// the replay applies it.
	replayed := d.ApplySnapshot([]model.ChatSession{makeSession("ghost", 0, now)})
	assert.Equal(t, 1, replayed)

	s, ok := d.Get("ghost")
	require.True(t, ok)
	assert.Equal(t, 1, s.UnreadCount)
	require.NotNil(t, s.LatestMessage)
	assert.Equal(t, "m1", s.LatestMessage.ID)
}

func TestDirectoryReplaySkipsMessagesSnapshotAlreadyReflects(t *testing.T) {
	d := NewDirectory()
	now := time.Now()

	msg := makeGuestMessage("m1", "ghost", now)
	d.ApplyIncoming("ghost", msg)

	// The snapshot's lastActivity already covers the buffered message.
	snap := makeSession("ghost", 1, now.Add(time.Second))
	replayed := d.ApplySnapshot([]model.ChatSession{snap})
	assert.Equal(t, 0, replayed)

	s, _ := d.Get("ghost")
	assert.Equal(t, 1, s.UnreadCount, "no double count")
}

func TestDirectoryPendingDroppedWhenSessionStaysUnknown(t *testing.T) {
	d := NewDirectory()
	now := time.Now()

	d.ApplyIncoming("ghost", makeGuestMessage("m1", "ghost", now))
	d.ApplySnapshot([]model.ChatSession{makeSession("other", 0, now)})

	// A later snapshot naming the session does not resurrect the old
	// buffer; the earlier snapshot was authoritative.
	replayed := d.ApplySnapshot([]model.ChatSession{
		makeSession("other", 0, now),
		makeSession("ghost", 0, now),
	})
	assert.Equal(t, 0, replayed)
}

func TestDirectoryPendingBufferBounded(t *testing.T) {
	d := NewDirectory()
	now := time.Now()

	for i := 0; i < pendingCap+10; i++ {
		d.ApplyIncoming("ghost", makeGuestMessage(fmt.Sprintf("m%d", i), "ghost", now.Add(time.Duration(i)*time.Second)))
	}
	assert.Len(t, d.pending["ghost"], pendingCap)
	// Oldest entries were dropped.
	assert.Equal(t, "m10", d.pending["ghost"][0].ID)
}

func TestDirectorySessionsOrderedByLastActivityDescending(t *testing.T) {
	d := NewDirectory()
	now := time.Now()

	d.ApplySnapshot([]model.ChatSession{
		makeSession("oldest", 0, now.Add(-2*time.Hour)),
		makeSession("newest", 0, now),
		makeSession("middle", 0, now.Add(-time.Hour)),
	})

	got := d.Sessions()
	require.Len(t, got, 3)
	assert.Equal(t, "newest", got[0].ID)
	assert.Equal(t, "middle", got[1].ID)
	assert.Equal(t, "oldest", got[2].ID)

	// A new message reorders.
	d.ApplyIncoming("oldest", makeGuestMessage("m1", "oldest", now.Add(time.Minute)))
	got = d.Sessions()
	assert.Equal(t, "oldest", got[0].ID)
}

func TestDirectoryTotalUnread(t *testing.T) {
	d := NewDirectory()
	now := time.Now()
	d.ApplySnapshot([]model.ChatSession{
		makeSession("a", 2, now),
		makeSession("b", 3, now),
	})
	assert.Equal(t, 5, d.TotalUnread())
}
