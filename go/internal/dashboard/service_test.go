package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mktsim/tickops/go/internal/countdown"
	"github.com/mktsim/tickops/go/internal/models"
)

func dialWebSocket(t *testing.T, serverURL, path string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var event Event
	require.NoError(t, json.Unmarshal(msg, &event))
	return event
}

func TestManagerBroadcastReachesClient(t *testing.T) {
	manager := NewConnectionManager(DefaultConnectionConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.Start(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/countdown", NewWebSocketHandler(manager).HandleCountdownConnection)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn := dialWebSocket(t, server.URL, "/ws/countdown")
	require.Eventually(t, func() bool {
		return manager.ConnectionCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	last := time.Now().Add(-30 * time.Second)
	event, err := NewCountdownTickEvent(countdown.Observe(time.Now(), &last, 21))
	require.NoError(t, err)
	manager.Broadcast(event)

	got := readEvent(t, conn)
	assert.Equal(t, EventTypeCountdownTick, got.Type)
	assert.NotEmpty(t, got.ID)

	var payload CountdownTickPayload
	require.NoError(t, json.Unmarshal(got.Data, &payload))
	assert.Equal(t, int64(21), payload.TickNumber)
	assert.False(t, payload.AlmostDue)
	assert.Greater(t, payload.RemainingMS, int64(0))
	assert.LessOrEqual(t, payload.RemainingMS, countdown.TickInterval.Milliseconds())
}

func TestServiceStreamsCountdownTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	provider := &fakeStateProvider{tick: &models.Tick{
		TickNumber: 33,
		Timestamp:  clock.Now().Add(-time.Minute).UnixMilli(),
	}}

	service := NewService(Config{
		ConnectionConfig: DefaultConnectionConfig(),
		PollInterval:     DefaultPollInterval,
	}, provider, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.Run(ctx)

	mux := http.NewServeMux()
	service.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn := dialWebSocket(t, server.URL, "/ws/countdown")
	require.Eventually(t, func() bool {
		return service.manager.ConnectionCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Tracker ticker and poller ticker are both waiting on the fake clock
	// once the immediate poll has run.
	clock.BlockUntil(2)
	clock.Advance(time.Second)

	// The poller broadcasts TickObserved for tick 33 on startup; the
	// advance then produces a CountdownTick. Scan until the countdown
	// event arrives.
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.True(t, time.Now().Before(deadline), "no CountdownTick received")
		event := readEvent(t, conn)
		if event.Type != EventTypeCountdownTick {
			continue
		}
		var payload CountdownTickPayload
		require.NoError(t, json.Unmarshal(event.Data, &payload))
		assert.Equal(t, int64(33), payload.TickNumber)
		assert.Equal(t, (countdown.TickInterval - 61*time.Second).Milliseconds(), payload.RemainingMS)
		break
	}
}
