package countdown

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveSnapshot(t *testing.T, updates <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-updates:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func TestTrackerPublishesEverySecond(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracker := NewTracker(clock)

	last := clock.Now().Add(-time.Minute)
	tracker.SetLastTick(last, 7)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tracker.Run(ctx)

	clock.BlockUntil(1)

	clock.Advance(time.Second)
	snap := receiveSnapshot(t, tracker.Updates())
	assert.Equal(t, int64(7), snap.TickNumber)
	assert.Equal(t, TickInterval-61*time.Second, snap.Remaining)

	clock.Advance(time.Second)
	snap = receiveSnapshot(t, tracker.Updates())
	assert.Equal(t, TickInterval-62*time.Second, snap.Remaining)
}

func TestTrackerSnapshotRecomputesFromScratch(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracker := NewTracker(clock)

	snap := tracker.Snapshot()
	assert.Equal(t, TickInterval, snap.Remaining)
	assert.Nil(t, snap.LastTickAt)

	last := clock.Now()
	tracker.SetLastTick(last, 1)
	snap = tracker.Snapshot()
	require.NotNil(t, snap.LastTickAt)
	assert.Equal(t, TickInterval, snap.Remaining)

	// A later observation of the same tick moves the countdown forward.
	clock.Advance(30 * time.Second)
	snap = tracker.Snapshot()
	assert.Equal(t, TickInterval-30*time.Second, snap.Remaining)
	assert.False(t, snap.AlmostDue)

	clock.Advance(241 * time.Second)
	snap = tracker.Snapshot()
	assert.Equal(t, 29*time.Second, snap.Remaining)
	assert.True(t, snap.AlmostDue)
}
