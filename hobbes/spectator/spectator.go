// Package spectator serves a read-only WebSocket feed of the session:
// agent thinking, recent commands, and loop status. It never accepts
// input, so a spectator cannot influence the game.
package spectator

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mots/hobbes/hobbes/coordinator"
)

const (
	writeTimeout = 5 * time.Second
	// sendBuffer is per-client; slow clients drop updates rather than
	// stall the publisher.
	sendBuffer = 16
)

// Update is the JSON document pushed to every connected spectator
// after each coordinator tick. The raw framebuffer stays out of the
// feed to keep messages small.
type Update struct {
	WaitingForAgent bool     `json:"waiting_for_agent"`
	Thinking        string   `json:"thinking,omitempty"`
	RecentCommands  []string `json:"recent_commands,omitempty"`
	AgentCommands   []string `json:"agent_commands,omitempty"`
	FrameCount      int      `json:"frame_count"`
	TurnCounter     int      `json:"turn_counter"`
	Stopped         bool     `json:"stopped"`
}

// Server broadcasts coordinator state to WebSocket clients.
type Server struct {
	addr     string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
}

type client struct {
	send chan []byte
}

func NewServer(addr string) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish pushes a state snapshot to all connected clients. It never
// blocks: clients with a full send buffer miss this update.
func (s *Server) Publish(state coordinator.State) {
	u := Update{
		WaitingForAgent: state.WaitingForAgent,
		Thinking:        state.Thinking,
		RecentCommands:  state.RecentCommands,
		AgentCommands:   state.AgentCommands,
		FrameCount:      state.FrameCount,
		TurnCounter:     state.TurnCounter,
		Stopped:         state.Stopped,
	}
	b, err := json.Marshal(u)
	if err != nil {
		slog.Error("Failed to encode spectator update", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = b
	for c := range s.clients {
		select {
		case c.send <- b:
		default:
		}
	}
}

// Handler upgrades requests to WebSocket and streams updates until the
// client disconnects.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := &client{send: make(chan []byte, sendBuffer)}

		s.mu.Lock()
		s.clients[c] = struct{}{}
		// New clients get the latest snapshot right away.
		if s.last != nil {
			c.send <- s.last
		}
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			delete(s.clients, c)
			s.mu.Unlock()
		}()

		slog.Info("Spectator connected", "remote", r.RemoteAddr)

		// Reads are discarded; the feed is one-way. The read loop exists
		// to notice disconnects.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case b := <-c.send:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

// Run serves the feed until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/spectate", s.Handler())

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: mux}

	slog.Info("Spectator feed listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
