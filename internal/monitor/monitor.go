package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/park285/piece-wheel/internal/board"
	"github.com/park285/piece-wheel/internal/lichess"
	"github.com/park285/piece-wheel/internal/msgcat"
	"github.com/park285/piece-wheel/internal/obslog"
	"github.com/park285/piece-wheel/pkg/wheeldto"
	"go.uber.org/zap"
)

// DefaultDelay is the pause between a finished cycle and the next check.
const DefaultDelay = 5 * time.Second

// State is the monitor's phase. Checking and Streaming never overlap.
type State int32

const (
	Idle State = iota
	Checking
	Streaming
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Streaming:
		return "streaming"
	default:
		return "idle"
	}
}

// Source is the remote game-data provider.
type Source interface {
	CurrentGame(ctx context.Context, username string) (*lichess.Game, error)
	StreamGame(ctx context.Context, gameID string, onRecord func([]byte)) error
}

// Handler receives what the monitor observes, in order, from the Run goroutine.
type Handler interface {
	GameFound(g wheeldto.GameFound)
	Position(snap board.Snapshot)
	GameEnded(gameID string)
	Status(st wheeldto.Status)
}

type Monitor struct {
	user    string
	src     Source
	handler Handler
	delay   time.Duration
	cat     *msgcat.Catalog
	logger  *zap.Logger

	state atomic.Int32

	// Owned by the Run goroutine.
	timer *time.Timer
	gen   uint64
	wake  chan uint64
}

type Option func(*Monitor)

func WithDelay(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.delay = d
		}
	}
}

func WithCatalog(c *msgcat.Catalog) Option { return func(m *Monitor) { m.cat = c } }

func WithLogger(l *zap.Logger) Option { return func(m *Monitor) { m.logger = l } }

func New(username string, src Source, h Handler, opts ...Option) *Monitor {
	m := &Monitor{
		user:    strings.TrimSpace(username),
		src:     src,
		handler: h,
		delay:   DefaultDelay,
		wake:    make(chan uint64),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = obslog.L()
	}
	if m.cat == nil {
		m.cat = msgcat.MustDefault()
	}
	return m
}

// State reports the current phase. Safe from any goroutine.
func (m *Monitor) State() State { return State(m.state.Load()) }

func (m *Monitor) setState(s State) { m.state.Store(int32(s)) }

// Run checks immediately, then keeps cycling until ctx is done. Provider
// failures never end the loop.
func (m *Monitor) Run(ctx context.Context) error {
	defer m.stopTimer()
	m.setState(Idle)
	m.emit("monitoring", nil)
	m.logger.Info("monitor_start", zap.String("user", m.user), zap.Duration("delay", m.delay))

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			m.setState(Idle)
			m.logger.Info("monitor_stop", zap.String("user", m.user))
			return ctx.Err()
		case gen := <-m.wake:
			if gen != m.gen {
				continue
			}
			m.timer = nil
			m.check(ctx)
		}
	}
}

// scheduleNextCheck replaces any pending timer with a new one.
func (m *Monitor) scheduleNextCheck(ctx context.Context) {
	m.stopTimer()
	m.gen++
	gen := m.gen
	m.timer = time.AfterFunc(m.delay, func() {
		select {
		case m.wake <- gen:
		case <-ctx.Done():
		}
	})
}

func (m *Monitor) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
}

func (m *Monitor) check(ctx context.Context) {
	if !m.state.CompareAndSwap(int32(Idle), int32(Checking)) {
		return
	}
	m.emit("checking", nil)

	g, err := m.src.CurrentGame(ctx, m.user)
	if ctx.Err() != nil {
		m.setState(Idle)
		return
	}
	switch {
	case errors.Is(err, lichess.ErrUserNotFound):
		m.logger.Info("monitor_user_not_found", zap.String("user", m.user))
		m.emit("not_found", nil)
		m.rest(ctx)
	case err != nil:
		m.logger.Warn("monitor_check_error", zap.String("user", m.user), zap.Error(err))
		m.emit("check_error", map[string]any{"Error": err.Error()})
		m.rest(ctx)
	case !g.Ongoing():
		status := ""
		if g != nil {
			status = g.Status
		}
		m.logger.Debug("monitor_no_active_game", zap.String("user", m.user), zap.String("status", status))
		m.emit("no_active_game", nil)
		m.rest(ctx)
	default:
		m.logger.Info("monitor_game_found", zap.String("user", m.user), zap.String("game_id", g.ID))
		m.emit("game_found", nil)
		m.handler.GameFound(m.describe(g))
		m.stopTimer()
		m.setState(Streaming)
		m.stream(ctx, g.ID)
	}
}

func (m *Monitor) rest(ctx context.Context) {
	m.setState(Idle)
	m.scheduleNextCheck(ctx)
}

func (m *Monitor) stream(ctx context.Context, gameID string) {
	m.emit("streaming", map[string]any{"GameID": gameID})
	records := 0
	err := m.src.StreamGame(ctx, gameID, func(line []byte) {
		if m.apply(gameID, line) {
			records++
		}
	})
	if ctx.Err() != nil {
		m.setState(Idle)
		return
	}
	if err != nil {
		m.logger.Warn("monitor_stream_error", zap.String("game_id", gameID), zap.Int("records", records), zap.Error(err))
		m.emit("stream_error", map[string]any{"Error": err.Error()})
	} else {
		m.logger.Info("monitor_stream_complete", zap.String("game_id", gameID), zap.Int("records", records))
		m.emit("stream_complete", nil)
	}
	m.handler.GameEnded(gameID)
	m.rest(ctx)
}

// apply handles one NDJSON record. Malformed records are logged and skipped.
func (m *Monitor) apply(gameID string, line []byte) bool {
	var u lichess.Update
	if err := json.Unmarshal(line, &u); err != nil {
		m.logger.Warn("stream_record_skipped", zap.String("game_id", gameID), zap.ByteString("line", line), zap.Error(err))
		return false
	}
	if strings.TrimSpace(u.FEN) == "" {
		m.logger.Debug("stream_record_without_fen", zap.String("game_id", gameID))
		return false
	}
	if err := board.Validate(u.FEN); err != nil {
		m.logger.Warn("board_encoding_suspect", zap.String("game_id", gameID), zap.Error(err))
	}
	m.handler.Position(board.Parse(u.FEN))
	return true
}

// describe maps a provider game to sides. The subject is always left; left
// plays white only when the white player's name matches the subject.
func (m *Monitor) describe(g *lichess.Game) wheeldto.GameFound {
	white := m.player(g.Players.White)
	black := m.player(g.Players.Black)
	left := board.Black
	if strings.EqualFold(white.Name, m.user) {
		left = board.White
	}
	return wheeldto.GameFound{
		GameID:     g.ID,
		White:      white,
		Black:      black,
		LeftColor:  string(left),
		RightColor: string(left.Opposite()),
	}
}

func (m *Monitor) player(p lichess.Player) wheeldto.Player {
	name := p.Name()
	if name == "" {
		name = m.cat.Text("player.anonymous", nil, "Anonymous")
	}
	return wheeldto.Player{Name: name, Rating: p.Rating}
}

func (m *Monitor) emit(key string, extra map[string]any) {
	data := map[string]any{
		"User":  m.user,
		"Delay": m.delay.String(),
	}
	for k, v := range extra {
		data[k] = v
	}
	text := m.cat.Text("status."+key, data, key)
	m.handler.Status(wheeldto.Status{Key: key, Text: text})
}
