// Package countdown derives the time remaining until the next market tick
// from the last observed tick time. The backend fires a tick every five
// minutes; clients only ever see the timestamp of the last one, so the
// remaining time is recomputed from scratch on every observation rather
// than counted down statefully.
package countdown

import (
	"fmt"
	"time"
)

const (
	// TickInterval is the fixed period of the backend's market tick.
	TickInterval = 5 * time.Minute

	// AlmostDueThreshold marks the final stretch before a tick, when the
	// widget switches to its urgent style.
	AlmostDueThreshold = 30 * time.Second
)

// Remaining returns the time left until the next tick given the current
// time and the last observed tick time. The result is always within
// [0, TickInterval]: an unknown or future last tick yields the full
// interval, and an elapsed time that is an exact multiple of the interval
// also yields the full interval (the cycle has just reset).
func Remaining(now time.Time, lastTick *time.Time) time.Duration {
	if lastTick == nil || lastTick.IsZero() {
		return TickInterval
	}
	elapsed := now.Sub(*lastTick)
	if elapsed < 0 {
		return TickInterval
	}
	return TickInterval - elapsed%TickInterval
}

// AlmostDue reports whether the next tick is imminent.
func AlmostDue(remaining time.Duration) bool {
	return remaining < AlmostDueThreshold
}

// Snapshot is one observation of the countdown, derived purely from the
// wall clock and the externally owned last-tick time.
type Snapshot struct {
	LastTickAt  *time.Time    `json:"last_tick_at,omitempty"`
	TickNumber  int64         `json:"tick_number,omitempty"`
	Remaining   time.Duration `json:"-"`
	RemainingMS int64         `json:"remaining_ms"`
	AlmostDue   bool          `json:"almost_due"`
	ObservedAt  time.Time     `json:"observed_at"`
}

// Observe builds a Snapshot for the given moment.
func Observe(now time.Time, lastTick *time.Time, tickNumber int64) Snapshot {
	remaining := Remaining(now, lastTick)
	return Snapshot{
		LastTickAt:  lastTick,
		TickNumber:  tickNumber,
		Remaining:   remaining,
		RemainingMS: remaining.Milliseconds(),
		AlmostDue:   AlmostDue(remaining),
		ObservedAt:  now,
	}
}

// Format renders the remaining time as the widget's M:SS display string.
func (s Snapshot) Format() string {
	total := int(s.Remaining / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
