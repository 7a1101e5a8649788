package convex

import (
	"context"

	"github.com/mktsim/tickops/go/internal/models"
)

const (
	// Marketplace function paths.
	GetAllProductsFn = "products:getAllProducts"
	GetTickHistoryFn = "tick:getTickHistory"
	ManualTickFn     = "tick:manualTick"
)

// GetAllProducts fetches every product in the marketplace.
func (c *Client) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.Query(ctx, GetAllProductsFn, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetTickHistory fetches recent ticks, newest first. A limit of 0 leaves
// the page size to the backend.
func (c *Client) GetTickHistory(ctx context.Context, limit int) ([]models.Tick, error) {
	var args any
	if limit > 0 {
		args = map[string]any{"limit": limit}
	}
	var ticks []models.Tick
	if err := c.Query(ctx, GetTickHistoryFn, args, &ticks); err != nil {
		return nil, err
	}
	return ticks, nil
}

// ManualTick triggers one market tick outside the regular schedule.
func (c *Client) ManualTick(ctx context.Context) (*models.TickResult, error) {
	var result models.TickResult
	if err := c.Mutation(ctx, ManualTickFn, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
