// Package dashboard serves the tick-countdown widget state to browser
// clients. The server only ships derived state; rendering (badge, pulse)
// stays client-side, with the client free to count down between updates.
package dashboard

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mktsim/tickops/go/internal/countdown"
)

// EventType tags the payload of a dashboard event.
type EventType string

const (
	// EventTypeCountdownTick is emitted once per second with the derived
	// remaining time.
	EventTypeCountdownTick EventType = "CountdownTick"
	// EventTypeTickObserved is emitted when the poller sees a new market
	// tick in the backend's history.
	EventTypeTickObserved EventType = "TickObserved"
)

// Event is the envelope for all messages pushed over the WebSocket.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// CountdownTickPayload mirrors countdown.Snapshot on the wire.
type CountdownTickPayload struct {
	RemainingMS int64      `json:"remaining_ms"`
	AlmostDue   bool       `json:"almost_due"`
	Display     string     `json:"display"`
	LastTickAt  *time.Time `json:"last_tick_at,omitempty"`
	TickNumber  int64      `json:"tick_number,omitempty"`
}

// TickObservedPayload announces a freshly observed market tick.
type TickObservedPayload struct {
	TickNumber   int64     `json:"tick_number"`
	TickedAt     time.Time `json:"ticked_at"`
	BotPurchases int       `json:"bot_purchases"`
	PriceUpdates int       `json:"price_updates"`
	StockUpdates int       `json:"stock_updates"`
}

func newEvent(eventType EventType, at time.Time, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: at,
		Data:      data,
	}, nil
}

// NewCountdownTickEvent wraps a countdown snapshot into an event.
func NewCountdownTickEvent(snap countdown.Snapshot) (*Event, error) {
	return newEvent(EventTypeCountdownTick, snap.ObservedAt, CountdownTickPayload{
		RemainingMS: snap.RemainingMS,
		AlmostDue:   snap.AlmostDue,
		Display:     snap.Format(),
		LastTickAt:  snap.LastTickAt,
		TickNumber:  snap.TickNumber,
	})
}
