// Package debugview streams character snapshots, locomotion events and
// controller debug primitives to websocket clients as JSON messages.
package debugview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Versifine/locomotion/internal/body"
	"github.com/Versifine/locomotion/internal/event"
	"github.com/Versifine/locomotion/internal/locomotion"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
)

const (
	MessageTypeInfo     = "info"
	MessageTypeSnapshot = "snapshot"
	MessageTypeEvent    = "event"

	DefaultPingInterval = 2 * time.Second
	writeTimeout        = time.Second
	clientQueueSize     = 32
	maxPendingPoints    = 256
)

// Point is one DrawContactPoint call.
type Point struct {
	Position mgl64.Vec3 `json:"position"`
	Normal   mgl64.Vec3 `json:"normal"`
	Distance float64    `json:"distance"`
	LifeTime int        `json:"life_time"`
	Color    mgl64.Vec3 `json:"color"`
}

type Message struct {
	Type     string                 `json:"type"`
	Info     string                 `json:"info,omitempty"`
	Snapshot *body.Snapshot         `json:"snapshot,omitempty"`
	Points   []Point                `json:"points,omitempty"`
	Event    string                 `json:"event,omitempty"`
	Payload  *event.LocomotionEvent `json:"payload,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to every connected client. Slow clients drop
// messages instead of blocking the simulation.
type Hub struct {
	upgrader     websocket.Upgrader
	log          *slog.Logger
	pingInterval time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}

	drawMu  sync.Mutex
	pending []Point
	last    *body.Snapshot
}

var _ locomotion.DebugDrawer = (*Hub)(nil)

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:          log,
		pingInterval: DefaultPingInterval,
		clients:      make(map[*client]struct{}),
	}
}

func (h *Hub) SetPingInterval(interval time.Duration) {
	h.pingInterval = interval
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DrawContactPoint buffers a point until the next PublishSnapshot.
func (h *Hub) DrawContactPoint(point, normal mgl64.Vec3, distance float64, lifeTime int, color mgl64.Vec3) {
	h.drawMu.Lock()
	defer h.drawMu.Unlock()
	if len(h.pending) >= maxPendingPoints {
		return
	}
	h.pending = append(h.pending, Point{
		Position: point,
		Normal:   normal,
		Distance: distance,
		LifeTime: lifeTime,
		Color:    color,
	})
}

// PublishSnapshot broadcasts snap together with every buffered debug point.
func (h *Hub) PublishSnapshot(snap body.Snapshot) {
	h.drawMu.Lock()
	points := h.pending
	h.pending = nil
	h.last = &snap
	h.drawMu.Unlock()

	h.broadcast(Message{Type: MessageTypeSnapshot, Snapshot: &snap, Points: points})
}

// LastSnapshot returns the most recently published snapshot.
func (h *Hub) LastSnapshot() (body.Snapshot, bool) {
	h.drawMu.Lock()
	defer h.drawMu.Unlock()
	if h.last == nil {
		return body.Snapshot{}, false
	}
	return *h.last, true
}

// Forward relays every locomotion event published on bus.
func (h *Hub) Forward(bus *event.Bus) {
	for _, name := range event.AllLocomotionEvents {
		bus.Subscribe(name, func(raw any) {
			evt, ok := raw.(*event.LocomotionEvent)
			if !ok {
				return
			}
			h.broadcast(Message{Type: MessageTypeEvent, Event: name, Payload: evt})
		})
	}
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("Encode debug view message failed", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Debug("Debug view client queue full, dropping message", "remote", c.conn.RemoteAddr())
		}
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientQueueSize)}
	hello, _ := json.Marshal(Message{Type: MessageTypeInfo, Info: "connected to locomotion debug view"})
	c.send <- hello
	if snap, ok := h.LastSnapshot(); ok {
		if data, err := json.Marshal(Message{Type: MessageTypeSnapshot, Snapshot: &snap}); err == nil {
			c.send <- data
		}
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("Debug view client connected", "remote", conn.RemoteAddr())

	done := make(chan struct{})
	go h.writePump(c, done)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("Debug view read failed", "error", err)
			}
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(done)
	h.log.Info("Debug view client disconnected", "remote", conn.RemoteAddr())
}

// writePump is the only writer on the connection.
func (h *Hub) writePump(c *client, done <-chan struct{}) {
	var ping <-chan time.Time
	if h.pingInterval > 0 {
		ticker := time.NewTicker(h.pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}
	defer c.conn.Close()

	for {
		select {
		case <-done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Debug("Debug view write failed", "error", err)
				return
			}
		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// Handler routes /ws to the websocket stream and /state to the last snapshot.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := h.LastSnapshot()
		if !ok {
			http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	})
	return mux
}

// Run serves Handler on addr until ctx is cancelled.
func (h *Hub) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("debug view listen %s: %w", addr, err)
	}
	return h.Serve(ctx, ln)
}

func (h *Hub) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		h.closeClients()
	}()

	h.log.Info("Debug view listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("debug view serve: %w", err)
	}
	return nil
}

// closeClients drops every hijacked connection; Shutdown does not track them.
func (h *Hub) closeClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}
