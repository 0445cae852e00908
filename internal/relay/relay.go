// Package relay mirrors wheel events to Redis so other processes can follow
// a running wheel: every event is PUBLISHed and the latest game and
// inventory snapshots are kept under expiring keys. Publishing only queues;
// a relay goroutine talks to Redis.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/park285/piece-wheel/internal/obslog"
	"github.com/park285/piece-wheel/pkg/wheeldto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultChannel = "wheel:events"
	DefaultTTL     = time.Hour
	DefaultQueue   = 256

	opTimeout = 2 * time.Second
)

type Relay struct {
	rdb     *redis.Client
	channel string
	ttl     time.Duration
	size    int
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan wheeldto.Event
	done   chan struct{}
}

type Option func(*Relay)

func WithChannel(ch string) Option {
	return func(r *Relay) {
		if s := strings.TrimSpace(ch); s != "" {
			r.channel = s
		}
	}
}

func WithTTL(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithQueueSize bounds how many events may wait for Redis.
func WithQueueSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.size = n
		}
	}
}

func WithLogger(l *zap.Logger) Option { return func(r *Relay) { r.logger = l } }

// New starts the relay goroutine; Close stops it.
func New(rdb *redis.Client, opts ...Option) *Relay {
	r := &Relay{rdb: rdb, channel: DefaultChannel, ttl: DefaultTTL, size: DefaultQueue}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = obslog.L()
	}
	r.queue = make(chan wheeldto.Event, r.size)
	r.done = make(chan struct{})
	go r.loop()
	return r
}

// Dial parses a redis:// URL, pings the server and returns a Relay on it.
func Dial(ctx context.Context, url string, opts ...Option) (*Relay, error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(o)
	pctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, opts...), nil
}

func (r *Relay) Channel() string { return r.channel }

func (r *Relay) keyLatest(t wheeldto.EventType) string { return r.channel + ":latest:" + string(t) }

func retained(t wheeldto.EventType) bool {
	switch t {
	case wheeldto.EventGameFound, wheeldto.EventInventoryUpdated, wheeldto.EventStatus:
		return true
	default:
		return false
	}
}

// Publish queues ev without blocking. A full queue drops ev with a warning.
func (r *Relay) Publish(ev wheeldto.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- ev:
	default:
		r.logger.Warn("relay_queue_full", zap.String("event", string(ev.Type)))
	}
}

func (r *Relay) loop() {
	defer close(r.done)
	for ev := range r.queue {
		r.send(ev)
	}
}

// send writes one event. Failures are logged; the wheel keeps running without Redis.
func (r *Relay) send(ev wheeldto.Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		r.logger.Warn("relay_marshal_error", zap.String("event", string(ev.Type)), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	pipe := r.rdb.Pipeline()
	pipe.Publish(ctx, r.channel, raw)
	if retained(ev.Type) {
		pipe.Set(ctx, r.keyLatest(ev.Type), raw, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("relay_publish_error", zap.String("event", string(ev.Type)), zap.Error(err))
	}
}

// Latest returns the last retained event of type t, or nil when none is stored.
func (r *Relay) Latest(ctx context.Context, t wheeldto.EventType) (*wheeldto.Event, error) {
	raw, err := r.rdb.Get(ctx, r.keyLatest(t)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ev wheeldto.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Close gives queued events up to opTimeout to drain, then closes the
// client so anything still pending fails fast.
func (r *Relay) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	select {
	case <-r.done:
	case <-time.After(opTimeout):
		r.logger.Warn("relay_drain_timeout", zap.Int("pending", len(r.queue)))
	}
	err := r.rdb.Close()
	<-r.done
	return err
}
