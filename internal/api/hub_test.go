package api_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"core-launchpad/internal/discovery"
	"core-launchpad/internal/domain"
)

type wsSnapshot struct {
	Presales []struct {
		Address string `json:"address"`
		Status  string `json:"status"`
		IsNew   bool   `json:"isNew"`
	} `json:"presales"`
	Trigger string `json:"trigger"`
}

func readSnapshot(t *testing.T, conn *websocket.Conn) wsSnapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var snap wsSnapshot
	require.NoError(t, conn.ReadJSON(&snap))
	return snap
}

func TestWebsocket_StreamsSnapshots(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	first, _ := f.lp.AddPresale(liveConfig(), domain.PresaleStats{})
	_, err := f.tracker.Refresh(context.Background(), discovery.TriggerStartup)
	require.NoError(t, err)

	srv := httptest.NewServer(f.server.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/presales"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	snap := readSnapshot(t, conn)
	require.Len(t, snap.Presales, 1)
	assert.Equal(t, first.Hex(), snap.Presales[0].Address)
	assert.Equal(t, "startup", snap.Trigger)

	second, _ := f.lp.AddPresale(liveConfig(), domain.PresaleStats{})
	_, err = f.tracker.Refresh(context.Background(), discovery.TriggerEvent)
	require.NoError(t, err)

	snap = readSnapshot(t, conn)
	require.Len(t, snap.Presales, 2)
	assert.Equal(t, "event", snap.Trigger)
	var found bool
	for _, p := range snap.Presales {
		if p.Address == second.Hex() {
			found = true
			assert.True(t, p.IsNew)
		}
	}
	assert.True(t, found, "new presale missing from pushed snapshot")
}

func TestWebsocket_StatusCountsClients(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	_, err := f.tracker.Refresh(context.Background(), discovery.TriggerStartup)
	require.NoError(t, err)

	srv := httptest.NewServer(f.server.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/presales"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	readSnapshot(t, conn)

	assert.Eventually(t, func() bool {
		body := decode(t, f.do(t, "GET", "/status", nil))
		return body["websocket_clients"] == float64(1)
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		body := decode(t, f.do(t, "GET", "/status", nil))
		return body["websocket_clients"] == float64(0)
	}, 2*time.Second, 10*time.Millisecond)
}
