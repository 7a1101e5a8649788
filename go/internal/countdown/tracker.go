package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// updateBufferSize bounds the snapshot channel; a slow consumer drops
// ticks instead of stalling the tracker, since every snapshot is a full
// recomputation and missing one loses nothing.
const updateBufferSize = 4

// Tracker re-derives the countdown once per second and publishes each
// Snapshot on Updates. The last-tick time is owned externally and fed in
// via SetLastTick; the tracker never mutates it.
type Tracker struct {
	clock clockwork.Clock

	mu         sync.RWMutex
	lastTick   *time.Time
	tickNumber int64

	updates chan Snapshot
}

// NewTracker creates a Tracker driven by the given clock.
func NewTracker(clock clockwork.Clock) *Tracker {
	return &Tracker{
		clock:   clock,
		updates: make(chan Snapshot, updateBufferSize),
	}
}

// SetLastTick records the most recently observed tick. Passing the same
// values again is harmless.
func (t *Tracker) SetLastTick(at time.Time, tickNumber int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts := at
	t.lastTick = &ts
	t.tickNumber = tickNumber
}

// Snapshot derives the current countdown state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	lastTick, tickNumber := t.lastTick, t.tickNumber
	t.mu.RUnlock()
	return Observe(t.clock.Now(), lastTick, tickNumber)
}

// Updates delivers one Snapshot per second while Run is active.
func (t *Tracker) Updates() <-chan Snapshot {
	return t.updates
}

// Run publishes snapshots every second until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("countdown tracker stopped")
			return
		case <-ticker.Chan():
			snap := t.Snapshot()
			select {
			case t.updates <- snap:
			default:
				log.Warn().
					Int64("remaining_ms", snap.RemainingMS).
					Msg("countdown update dropped, consumer is behind")
			}
		}
	}
}
