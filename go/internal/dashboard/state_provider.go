package dashboard

import (
	"context"
	"fmt"

	"github.com/mktsim/tickops/go/internal/models"
)

const providerHistoryLimit = 10

// StateProvider supplies the most recent market tick. The dashboard only
// needs the latest tick's time and number to derive the countdown.
type StateProvider interface {
	LatestTick(ctx context.Context) (*models.Tick, error)
}

// TickHistoryClient is the slice of the Convex client the provider uses.
type TickHistoryClient interface {
	GetTickHistory(ctx context.Context, limit int) ([]models.Tick, error)
}

// ConvexStateProvider reads the latest tick from the backend's history.
type ConvexStateProvider struct {
	client TickHistoryClient
}

// NewConvexStateProvider creates a provider backed by the given client.
func NewConvexStateProvider(client TickHistoryClient) *ConvexStateProvider {
	return &ConvexStateProvider{client: client}
}

// LatestTick fetches recent history and returns the highest-numbered
// tick, or nil when the backend has never ticked.
func (p *ConvexStateProvider) LatestTick(ctx context.Context) (*models.Tick, error) {
	ticks, err := p.client.GetTickHistory(ctx, providerHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch tick history: %w", err)
	}
	return models.LatestTick(ticks), nil
}
