package httpapi

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/godilite/energy-dashboard/internal/grpc/mocks"
	"github.com/godilite/energy-dashboard/internal/scheduler"
	"github.com/godilite/energy-dashboard/internal/series"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type clientCounter struct {
	mu sync.Mutex
	n  int
}

func (c *clientCounter) SetWebsocketClients(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = n
}

func (c *clientCounter) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func snapshot(period string, total float64) scheduler.Snapshot {
	return scheduler.Snapshot{
		TickID:      "tick-1",
		Period:      period,
		Summary:     series.Summary{Period: period, Total: total},
		GeneratedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func newHubServer(t *testing.T) (*Hub, *clientCounter, *httptest.Server) {
	t.Helper()
	counter := &clientCounter{}
	hub := NewHub(zaptest.NewLogger(t), counter)
	h := NewRouter(RouterConfig{
		Handlers: NewHandlers(&mocks.MockDashboardService{}, &mocks.MockDeviceService{}, nil),
		Hub:      hub,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, counter, srv
}

func TestHubBroadcast(t *testing.T) {
	hub, counter, srv := newHubServer(t)
	assert.Equal(t, "websocket", hub.Name())

	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Len() == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, counter.get())

	require.NoError(t, hub.Render(context.Background(), snapshot("week", 42)))

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		var got scheduler.Snapshot
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "week", got.Period)
		assert.Equal(t, 42.0, got.Summary.Total)
		assert.Equal(t, "tick-1", got.TickID)
	}
}

func TestHubReplaysLatestOnConnect(t *testing.T) {
	hub, _, srv := newHubServer(t)
	ctx := context.Background()

	require.NoError(t, hub.Render(ctx, snapshot("day", 1)))
	require.NoError(t, hub.Render(ctx, snapshot("day", 2)))
	require.NoError(t, hub.Render(ctx, snapshot("bill:year", 900)))

	conn := dial(t, srv)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))

	var first, second scheduler.Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))

	assert.Equal(t, "bill:year", first.Period)
	assert.Equal(t, "day", second.Period)
	assert.Equal(t, 2.0, second.Summary.Total, "only the latest snapshot per period is replayed")
}

func TestHubRemovesClosedClients(t *testing.T) {
	hub, counter, srv := newHubServer(t)

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, counter.get())
	assert.NoError(t, hub.Render(context.Background(), snapshot("day", 3)))
}
