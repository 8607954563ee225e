// Package server exposes a running game over a websocket: a live feed of the
// public narrative plus a small control surface for stepping phases. It is a
// passive consumer of the engine; rendering is the client's problem.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/llmwerewolf/werewolf-server-go/internal/game"
	"github.com/llmwerewolf/werewolf-server-go/internal/game/rules"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// Server drives one engine and fans its narrative out to observers.
type Server struct {
	engine   *game.WerewolfEngine
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	running bool
}

// New creates a server around an already set-up engine.
func New(engine *game.WerewolfEngine, logger *zap.Logger) *Server {
	return &Server{
		engine: engine,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP mux: /ws for the feed, /state for a one-shot
// JSON snapshot.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/state", s.handleState)
	return mux
}

type outboundMessage struct {
	Type  string         `json:"type"`
	View  *game.GameView `json:"view,omitempty"`
	Event *eventPayload  `json:"event,omitempty"`
	Error string         `json:"error,omitempty"`
}

type eventPayload struct {
	Kind      string    `json:"kind"`
	Round     int       `json:"round"`
	Phase     string    `json:"phase"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type inboundMessage struct {
	Command string `json:"command"` // "step" or "run"
}

func toPayload(event rules.Event) *eventPayload {
	return &eventPayload{
		Kind:      string(event.Type),
		Round:     event.Round,
		Phase:     event.Phase.String(),
		Message:   event.Message,
		Timestamp: event.Timestamp,
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	view := s.engine.View()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		s.logger.Warn("encode state", zap.Error(err))
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	client := newClient()

	// Backlog first: the public narrative so far, then the current view.
	for _, event := range s.engine.Events().Visible("") {
		client.send(outboundMessage{Type: "event", Event: toPayload(event)})
	}
	view := s.engine.View()
	client.send(outboundMessage{Type: "view", View: &view})

	handle := s.engine.Events().Subscribe(func(event rules.Event) {
		if !event.VisibleTo("") {
			return
		}
		client.send(outboundMessage{Type: "event", Event: toPayload(event)})
	})
	defer s.engine.Events().Unsubscribe(handle)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range client.outbound {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}()

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Command {
		case "step":
			s.step(r.Context(), client)
		case "run":
			go s.runToEnd(client)
		}
	}
	client.close()
	<-done
}

// client serializes sends so late publishes after disconnect are dropped
// instead of panicking on a closed channel.
type client struct {
	mu       sync.Mutex
	closed   bool
	outbound chan outboundMessage
}

func newClient() *client {
	return &client{outbound: make(chan outboundMessage, 256)}
}

func (c *client) send(msg outboundMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.outbound <- msg:
	default:
		// Slow observer; the /state endpoint lets it catch up.
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.outbound)
	}
}

func (s *Server) step(ctx context.Context, c *client) {
	_, err := s.engine.RunPhase(ctx)
	if err != nil && !errors.Is(err, game.ErrGameOver) {
		s.logger.Error("phase failed", zap.Error(err))
		c.send(outboundMessage{Type: "error", Error: err.Error()})
		return
	}
	view := s.engine.View()
	c.send(outboundMessage{Type: "view", View: &view})
}

func (s *Server) runToEnd(c *client) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if _, err := s.engine.Run(context.Background()); err != nil {
		s.logger.Error("game run failed", zap.Error(err))
		return
	}
	view := s.engine.View()
	c.send(outboundMessage{Type: "view", View: &view})
}
