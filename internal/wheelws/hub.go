package wheelws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/piece-wheel/internal/obslog"
	"github.com/park285/piece-wheel/pkg/wheeldto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	defaultBuffer = 32
	writeTimeout  = 3 * time.Second
)

// ClientMessage is the only inbound frame: {"type":"spin","side":"left"}.
type ClientMessage struct {
	Type string `json:"type"`
	Side string `json:"side"`
}

// StateMessage is sent once right after a client connects.
type StateMessage struct {
	Type  string         `json:"type"`
	State wheeldto.State `json:"state"`
}

// ReplyMessage answers a client frame that produced no event.
type ReplyMessage struct {
	Type  string `json:"type"`
	Side  string `json:"side,omitempty"`
	Error string `json:"error,omitempty"`
}

// SpinFunc starts a spin; accepted is false when the side is busy or empty.
type SpinFunc func(side string) (accepted bool, err error)

type client struct {
	id  string
	out chan any
}

// Hub pushes wheel events to every connected renderer and accepts spin
// requests from them. Slow clients lose events rather than stalling others.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client

	state   func() wheeldto.State
	spin    SpinFunc
	origins []string
	buffer  int
	logger  *zap.Logger
}

type Option func(*Hub)

func WithState(f func() wheeldto.State) Option { return func(h *Hub) { h.state = f } }

func WithSpin(f SpinFunc) Option { return func(h *Hub) { h.spin = f } }

// WithOriginPatterns allows cross-origin renderers matching the patterns.
func WithOriginPatterns(p []string) Option { return func(h *Hub) { h.origins = p } }

func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

func WithLogger(l *zap.Logger) Option { return func(h *Hub) { h.logger = l } }

func NewHub(opts ...Option) *Hub {
	h := &Hub{clients: make(map[string]*client), buffer: defaultBuffer}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = obslog.L()
	}
	return h
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues ev for every client without blocking.
func (h *Hub) Publish(ev wheeldto.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.out <- ev:
		default:
			h.logger.Warn("ws_client_slow", zap.String("client_id", c.id), zap.String("event", string(ev.Type)))
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws_client_joined", zap.String("client_id", c.id), zap.Int("clients", n))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws_client_left", zap.String("client_id", c.id), zap.Int("clients", n))
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.logger.Warn("ws_accept_failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	c := &client{id: uuid.NewString(), out: make(chan any, h.buffer)}
	if h.state != nil {
		c.out <- StateMessage{Type: "state", State: h.state()}
	}
	h.add(c)
	defer h.remove(c)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.writeLoop(ctx, cancel, conn, c)

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if ctx.Err() == nil {
					h.logger.Debug("ws_read_error", zap.String("client_id", c.id), zap.Error(err))
				}
			}
			return
		}
		if reply, ok := h.handle(msg); ok {
			select {
			case c.out <- reply:
			default:
			}
		}
	}
}

func (h *Hub) handle(msg ClientMessage) (ReplyMessage, bool) {
	if msg.Type != "spin" {
		return ReplyMessage{Type: "error", Error: "unknown type"}, true
	}
	if h.spin == nil {
		return ReplyMessage{Type: "error", Side: msg.Side, Error: "spin unavailable"}, true
	}
	accepted, err := h.spin(msg.Side)
	switch {
	case err != nil:
		return ReplyMessage{Type: "error", Side: msg.Side, Error: err.Error()}, true
	case !accepted:
		return ReplyMessage{Type: "spin_rejected", Side: msg.Side}, true
	default:
		return ReplyMessage{}, false
	}
}

func (h *Hub) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, c *client) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.out:
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, msg)
			wcancel()
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					h.logger.Debug("ws_write_error", zap.String("client_id", c.id), zap.Error(err))
				}
				return
			}
		}
	}
}
