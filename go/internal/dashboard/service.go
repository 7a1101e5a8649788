package dashboard

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mktsim/tickops/go/internal/countdown"
)

// Config wires a dashboard service together.
type Config struct {
	ConnectionConfig ConnectionConfig
	PollInterval     time.Duration
}

// Service owns the countdown tracker, the backend poller and the
// WebSocket fan-out, and exposes the HTTP surface.
type Service struct {
	config  Config
	manager *ConnectionManager
	tracker *countdown.Tracker
	poller  *Poller

	wsHandler    *WebSocketHandler
	stateHandler *StateHandler
}

// NewService builds the service around a state provider.
func NewService(config Config, provider StateProvider, clock clockwork.Clock) *Service {
	manager := NewConnectionManager(config.ConnectionConfig)
	tracker := countdown.NewTracker(clock)
	poller := NewPoller(provider, tracker, manager, clock, config.PollInterval)

	return &Service{
		config:       config,
		manager:      manager,
		tracker:      tracker,
		poller:       poller,
		wsHandler:    NewWebSocketHandler(manager),
		stateHandler: NewStateHandler(tracker, manager),
	}
}

// Run starts the manager, tracker and poller and forwards every tracker
// snapshot to connected clients. Blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		s.manager.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		s.tracker.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		s.poller.Run(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			log.Info().Msg("dashboard service stopped")
			return
		case snap := <-s.tracker.Updates():
			event, err := NewCountdownTickEvent(snap)
			if err != nil {
				log.Error().Err(err).Msg("failed to build countdown event")
				continue
			}
			s.manager.Broadcast(event)
		}
	}
}

// RegisterRoutes attaches the WebSocket and REST endpoints to the mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/countdown", s.wsHandler.HandleCountdownConnection)
	mux.HandleFunc("/api/countdown", s.stateHandler.HandleGetCountdown)
	mux.HandleFunc("/api/healthz", s.stateHandler.HandleHealthz)
}
