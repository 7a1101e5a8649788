// Package verify runs a one-shot health check against the marketplace
// backend: it confirms products are visible and bot-eligible, that tick
// history is accumulating, and that a manual tick executes end to end.
package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mktsim/tickops/go/internal/countdown"
	"github.com/mktsim/tickops/go/internal/market"
	"github.com/mktsim/tickops/go/internal/models"
)

const defaultHistoryLimit = 5

// Backend is the slice of the Convex client the verifier needs; tests
// substitute a fake.
type Backend interface {
	GetAllProducts(ctx context.Context) ([]models.Product, error)
	GetTickHistory(ctx context.Context, limit int) ([]models.Tick, error)
	ManualTick(ctx context.Context) (*models.TickResult, error)
}

// Options tune a verification run.
type Options struct {
	// HistoryLimit caps how many ticks are fetched; 0 means the default.
	HistoryLimit int
	// SkipMutation makes the run read-only, omitting the manual tick.
	SkipMutation bool
}

// Report summarizes one verification run.
type Report struct {
	ProductsTotal    int                `json:"products_total"`
	ProductsEligible int                `json:"products_eligible"`
	HistoryLength    int                `json:"history_length"`
	LatestTick       *models.Tick       `json:"latest_tick,omitempty"`
	LatestTickAge    time.Duration      `json:"-"`
	ManualTick       *models.TickResult `json:"manual_tick,omitempty"`
	Elapsed          time.Duration      `json:"-"`
}

// Runner executes verification runs against one backend.
type Runner struct {
	backend Backend
	opts    Options
	now     func() time.Time
}

// NewRunner creates a Runner. A zero Options is usable.
func NewRunner(backend Backend, opts Options) *Runner {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	return &Runner{backend: backend, opts: opts, now: time.Now}
}

// Run performs the checks in strict sequence and fails fast on the first
// error. There is no retry and no state carried between runs.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	started := r.now()
	report := &Report{}

	products, err := r.backend.GetAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	eligible := market.FilterEligible(products)
	report.ProductsTotal = len(products)
	report.ProductsEligible = len(eligible)
	log.Info().
		Int("total", report.ProductsTotal).
		Int("eligible", report.ProductsEligible).
		Msg("products fetched")

	ticks, err := r.backend.GetTickHistory(ctx, r.opts.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch tick history: %w", err)
	}
	report.HistoryLength = len(ticks)
	if latest := models.LatestTick(ticks); latest != nil {
		report.LatestTick = latest
		report.LatestTickAge = r.now().Sub(latest.Time())
		log.Info().
			Int64("tick_number", latest.TickNumber).
			Dur("age", report.LatestTickAge).
			Int("bot_purchases", len(latest.BotPurchases)).
			Msg("latest tick observed")
	} else {
		log.Warn().Msg("tick history is empty, backend may never have ticked")
	}

	if !r.opts.SkipMutation {
		result, err := r.backend.ManualTick(ctx)
		if err != nil {
			return nil, fmt.Errorf("manual tick: %w", err)
		}
		report.ManualTick = result
		log.Info().
			Int64("tick_number", result.TickNumber).
			Int("bot_purchases", result.BotPurchases).
			Int("stock_updates", result.StockUpdates).
			Int("crypto_updates", result.CryptoUpdates).
			Msg("manual tick executed")
	}

	report.Elapsed = r.now().Sub(started)
	return report, nil
}

// Summary renders the human-readable pass summary printed by the CLI.
func (r *Report) Summary() string {
	out := "verification passed\n"
	out += fmt.Sprintf("  products:       %d total, %d bot-eligible\n", r.ProductsTotal, r.ProductsEligible)
	out += fmt.Sprintf("  tick history:   %d entries\n", r.HistoryLength)
	if r.LatestTick != nil {
		last := r.LatestTick.Time()
		next := countdown.Remaining(last.Add(r.LatestTickAge), &last)
		out += fmt.Sprintf("  latest tick:    #%d, %s ago (next in ~%s)\n",
			r.LatestTick.TickNumber, r.LatestTickAge.Round(time.Second), next.Round(time.Second))
	}
	if r.ManualTick != nil {
		out += fmt.Sprintf("  manual tick:    #%d (%d bot purchases, %d stock updates, %d crypto updates)\n",
			r.ManualTick.TickNumber, r.ManualTick.BotPurchases, r.ManualTick.StockUpdates, r.ManualTick.CryptoUpdates)
	}
	out += fmt.Sprintf("  elapsed:        %s", r.Elapsed.Round(time.Millisecond))
	return out
}
