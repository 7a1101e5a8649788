package dashboard

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mktsim/tickops/go/internal/countdown"
)

// DefaultPollInterval is how often the poller re-reads tick history.
// Ticks land every five minutes, so a 15s poll keeps the countdown base
// at most a few seconds stale right after a tick.
const DefaultPollInterval = 15 * time.Second

// Poller periodically refreshes the latest tick from the backend and
// feeds it to the countdown tracker. On a new tick number it also
// broadcasts a TickObserved event.
type Poller struct {
	provider StateProvider
	tracker  *countdown.Tracker
	manager  *ConnectionManager
	clock    clockwork.Clock
	interval time.Duration

	lastSeen int64
}

// NewPoller creates a Poller. A nil manager disables TickObserved
// broadcasts (used by tests that only care about the tracker).
func NewPoller(provider StateProvider, tracker *countdown.Tracker, manager *ConnectionManager, clock clockwork.Clock, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		provider: provider,
		tracker:  tracker,
		manager:  manager,
		clock:    clock,
		interval: interval,
	}
}

// Run polls immediately, then on every interval until cancelled. Poll
// failures are logged and skipped; the tracker keeps counting down from
// the last known tick, which beats a blank display.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("tick poller stopped")
			return
		case <-ticker.Chan():
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	tick, err := p.provider.LatestTick(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to refresh latest tick")
		return
	}
	if tick == nil {
		log.Debug().Msg("no ticks in backend history yet")
		return
	}

	p.tracker.SetLastTick(tick.Time(), tick.TickNumber)

	if tick.TickNumber <= p.lastSeen {
		return
	}
	p.lastSeen = tick.TickNumber

	log.Info().
		Int64("tick_number", tick.TickNumber).
		Time("ticked_at", tick.Time()).
		Int("bot_purchases", len(tick.BotPurchases)).
		Msg("new market tick observed")

	if p.manager == nil {
		return
	}
	event, err := newEvent(EventTypeTickObserved, p.clock.Now(), TickObservedPayload{
		TickNumber:   tick.TickNumber,
		TickedAt:     tick.Time(),
		BotPurchases: len(tick.BotPurchases),
		PriceUpdates: tick.PriceUpdates,
		StockUpdates: tick.StockUpdates,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to build tick event")
		return
	}
	p.manager.Broadcast(event)
}
