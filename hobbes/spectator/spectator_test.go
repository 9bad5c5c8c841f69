package spectator

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mots/hobbes/hobbes/coordinator"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) Update {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var u Update
	require.NoError(t, json.Unmarshal(msg, &u))
	return u
}

func TestPublishReachesClient(t *testing.T) {
	s := NewServer(":0")
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)

	s.Publish(coordinator.State{
		WaitingForAgent: true,
		Thinking:        "heading to the Pokemon Center",
		RecentCommands:  []string{"up", "a"},
		FrameCount:      1200,
	})

	u := readUpdate(t, conn)
	assert.True(t, u.WaitingForAgent)
	assert.Equal(t, "heading to the Pokemon Center", u.Thinking)
	assert.Equal(t, []string{"up", "a"}, u.RecentCommands)
	assert.Equal(t, 1200, u.FrameCount)
}

func TestNewClientReceivesLatestSnapshot(t *testing.T) {
	s := NewServer(":0")
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	s.Publish(coordinator.State{Thinking: "before anyone connected"})

	conn := dial(t, srv)
	u := readUpdate(t, conn)
	assert.Equal(t, "before anyone connected", u.Thinking)
}

func TestPublishWithNoClients(t *testing.T) {
	s := NewServer(":0")
	// Must not panic or block.
	s.Publish(coordinator.State{FrameCount: 1})
	s.Publish(coordinator.State{FrameCount: 2})
}

func TestSlowClientDoesNotBlockPublisher(t *testing.T) {
	s := NewServer(":0")
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	dial(t, srv) // connected but never reading fast enough

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < sendBuffer*10; i++ {
			s.Publish(coordinator.State{FrameCount: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow client")
	}
}
