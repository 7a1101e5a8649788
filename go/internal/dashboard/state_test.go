package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mktsim/tickops/go/internal/countdown"
	"github.com/mktsim/tickops/go/internal/models"
)

type fakeHistoryClient struct {
	ticks []models.Tick
	err   error
}

func (f *fakeHistoryClient) GetTickHistory(ctx context.Context, limit int) ([]models.Tick, error) {
	return f.ticks, f.err
}

func TestConvexStateProviderPicksLatest(t *testing.T) {
	// Deliberately unordered history; the provider must not trust index 0.
	client := &fakeHistoryClient{ticks: []models.Tick{
		{TickNumber: 3, Timestamp: 1000},
		{TickNumber: 9, Timestamp: 9000},
		{TickNumber: 5, Timestamp: 5000},
	}}
	provider := NewConvexStateProvider(client)

	tick, err := provider.LatestTick(context.Background())
	require.NoError(t, err)
	require.NotNil(t, tick)
	assert.Equal(t, int64(9), tick.TickNumber)
}

func TestConvexStateProviderEmptyHistory(t *testing.T) {
	provider := NewConvexStateProvider(&fakeHistoryClient{})
	tick, err := provider.LatestTick(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tick)
}

func TestConvexStateProviderError(t *testing.T) {
	provider := NewConvexStateProvider(&fakeHistoryClient{err: errors.New("boom")})
	_, err := provider.LatestTick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch tick history")
}

type fakeStateProvider struct {
	tick  *models.Tick
	err   error
	calls atomic.Int32
}

func (f *fakeStateProvider) LatestTick(ctx context.Context) (*models.Tick, error) {
	f.calls.Add(1)
	return f.tick, f.err
}

func TestPollerFeedsTracker(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracker := countdown.NewTracker(clock)
	provider := &fakeStateProvider{tick: &models.Tick{
		TickNumber: 4,
		Timestamp:  clock.Now().Add(-time.Minute).UnixMilli(),
	}}
	poller := NewPoller(provider, tracker, nil, clock, DefaultPollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx)

	// The first poll runs before the ticker is created.
	clock.BlockUntil(1)
	snap := tracker.Snapshot()
	assert.Equal(t, int64(4), snap.TickNumber)
	assert.Equal(t, countdown.TickInterval-time.Minute, snap.Remaining)

	provider.tick = &models.Tick{
		TickNumber: 5,
		Timestamp:  clock.Now().UnixMilli(),
	}
	clock.Advance(DefaultPollInterval)
	require.Eventually(t, func() bool {
		return tracker.Snapshot().TickNumber == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPollerKeepsLastTickOnError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracker := countdown.NewTracker(clock)
	provider := &fakeStateProvider{tick: &models.Tick{
		TickNumber: 4,
		Timestamp:  clock.Now().UnixMilli(),
	}}
	poller := NewPoller(provider, tracker, nil, clock, DefaultPollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx)
	clock.BlockUntil(1)
	require.Equal(t, int64(4), tracker.Snapshot().TickNumber)

	provider.err = errors.New("backend unreachable")
	clock.Advance(DefaultPollInterval)
	require.Eventually(t, func() bool {
		return provider.calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	// Stale countdown base is preserved, not cleared.
	assert.Equal(t, int64(4), tracker.Snapshot().TickNumber)
}

func TestStateHandlerServesSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tracker := countdown.NewTracker(clock)
	tracker.SetLastTick(clock.Now().Add(-time.Minute), 11)
	manager := NewConnectionManager(DefaultConnectionConfig())
	handler := NewStateHandler(tracker, manager)

	req := httptest.NewRequest(http.MethodGet, "/api/countdown", nil)
	rec := httptest.NewRecorder()
	handler.HandleGetCountdown(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		RemainingMS int64  `json:"remaining_ms"`
		AlmostDue   bool   `json:"almost_due"`
		TickNumber  int64  `json:"tick_number"`
		Display     string `json:"display"`
		Connections int    `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(240_000), body.RemainingMS)
	assert.False(t, body.AlmostDue)
	assert.Equal(t, int64(11), body.TickNumber)
	assert.Equal(t, "4:00", body.Display)
	assert.Zero(t, body.Connections)
}

func TestStateHandlerRejectsPost(t *testing.T) {
	clock := clockwork.NewFakeClock()
	handler := NewStateHandler(countdown.NewTracker(clock), NewConnectionManager(DefaultConnectionConfig()))

	req := httptest.NewRequest(http.MethodPost, "/api/countdown", nil)
	rec := httptest.NewRecorder()
	handler.HandleGetCountdown(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
