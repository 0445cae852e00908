package wheel

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/park285/piece-wheel/internal/board"
	"github.com/park285/piece-wheel/internal/inventory"
	"github.com/park285/piece-wheel/internal/msgcat"
	"github.com/park285/piece-wheel/internal/notify"
	"github.com/park285/piece-wheel/internal/obslog"
	"github.com/park285/piece-wheel/pkg/wheeldto"
	"go.uber.org/zap"
)

const (
	minSpin   = 1800.0
	spinRange = 1800.0

	DefaultSpinDuration = 2 * time.Second
)

// Rand is the randomness the wheel draws from.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// Namer resolves a token to its display name.
type Namer interface {
	TokenName(token string) string
}

// Ticket describes an accepted spin.
type Ticket struct {
	Side     Side
	SpinID   uint64
	Angle    float64
	From     float64
	Rotation float64
	Duration time.Duration
}

// Result is the outcome of a completed spin.
type Result struct {
	Side     Side
	SpinID   uint64
	Index    int
	Token    inventory.Token
	Name     string
	Glyph    string
	Rotation float64
}

type sideState struct {
	color    board.Color
	tracker  inventory.Tracker
	spinning bool
	rotation float64
	spinID   uint64
	last     *Result
}

// Wheel owns both sides' inventories and spin state. All mutation happens
// under mu. pubMu is taken before mu is released and held while publishing,
// so subscribers see events in the order the state changed. Publishers must
// not call back into the Wheel.
type Wheel struct {
	mu      sync.Mutex
	pubMu   sync.Mutex
	rng     Rand
	sides   [2]sideState
	spinSeq uint64
	game    *wheeldto.GameFound
	status  *wheeldto.Status

	pub          notify.Publisher
	names        Namer
	logger       *zap.Logger
	spinDuration time.Duration
	after        func(d time.Duration, f func())
}

type Option func(*Wheel)

func WithRand(r Rand) Option { return func(w *Wheel) { w.rng = r } }

func WithPublisher(p notify.Publisher) Option { return func(w *Wheel) { w.pub = p } }

func WithNamer(n Namer) Option { return func(w *Wheel) { w.names = n } }

func WithLogger(l *zap.Logger) Option { return func(w *Wheel) { w.logger = l } }

// WithSpinDuration sets how long a spin runs before it resolves.
func WithSpinDuration(d time.Duration) Option {
	return func(w *Wheel) {
		if d > 0 {
			w.spinDuration = d
		}
	}
}

// WithScheduler replaces time.AfterFunc for spin completion. Tests pass a
// scheduler that records the callback instead of running it.
func WithScheduler(after func(d time.Duration, f func())) Option {
	return func(w *Wheel) { w.after = after }
}

func New(opts ...Option) *Wheel {
	w := &Wheel{
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		pub:          notify.Discard,
		spinDuration: DefaultSpinDuration,
		after:        func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
	w.sides[Left.index()].color = board.White
	w.sides[Right.index()].color = board.Black
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = obslog.L()
	}
	if w.names == nil {
		w.names = msgcat.MustDefault()
	}
	return w
}

// unlockAndPublish releases mu and delivers events before any later
// mutation can deliver its own.
func (w *Wheel) unlockAndPublish(events []wheeldto.Event) {
	w.pubMu.Lock()
	defer w.pubMu.Unlock()
	w.mu.Unlock()
	for _, ev := range events {
		w.pub.Publish(ev)
	}
}

// Spin starts a draw on side. It reports false without side effects when a
// spin is already in flight there, the side has no tokens, or side is unknown.
func (w *Wheel) Spin(side Side) (Ticket, bool) {
	if side != Left && side != Right {
		return Ticket{}, false
	}
	w.mu.Lock()
	s := &w.sides[side.index()]
	if s.spinning || s.tracker.Len() == 0 {
		w.mu.Unlock()
		return Ticket{}, false
	}
	w.spinSeq++
	angle := minSpin + w.rng.Float64()*spinRange
	t := Ticket{
		Side:     side,
		SpinID:   w.spinSeq,
		Angle:    angle,
		From:     s.rotation,
		Rotation: normalize(s.rotation + angle),
		Duration: w.spinDuration,
	}
	s.spinning = true
	s.spinID = t.SpinID
	s.rotation = t.Rotation
	s.last = nil
	ev := wheeldto.SpinEventOf(wheeldto.EventSpinStarted, wheeldto.SpinEvent{
		Side:       string(side),
		Color:      string(s.color),
		SpinID:     t.SpinID,
		Angle:      t.Angle,
		Rotation:   t.Rotation,
		DurationMS: t.Duration.Milliseconds(),
	})
	w.unlockAndPublish([]wheeldto.Event{ev})

	w.logger.Info("spin_started",
		zap.String("side", string(side)),
		zap.Uint64("spin_id", t.SpinID),
		zap.Float64("angle", t.Angle))
	w.after(t.Duration, func() { w.Complete(side, t.SpinID) })
	return t, true
}

// Complete resolves the spin identified by id. A completion for a spin that
// was canceled or superseded is ignored.
func (w *Wheel) Complete(side Side, id uint64) (Result, bool) {
	if side != Left && side != Right {
		return Result{}, false
	}
	w.mu.Lock()
	s := &w.sides[side.index()]
	if !s.spinning || s.spinID != id {
		w.mu.Unlock()
		w.logger.Debug("spin_completion_stale", zap.String("side", string(side)), zap.Uint64("spin_id", id))
		return Result{}, false
	}
	idx := SelectIndex(s.tracker.Len(), s.rotation)
	tok := s.tracker.At(idx)
	r := Result{
		Side:     side,
		SpinID:   id,
		Index:    idx,
		Token:    tok,
		Name:     w.names.TokenName(string(tok)),
		Glyph:    tok.Glyph(s.color),
		Rotation: s.rotation,
	}
	s.spinning = false
	s.rotation = 0
	s.last = &r
	ev := wheeldto.SpinEventOf(wheeldto.EventSpinResult, wheeldto.SpinEvent{
		Side:     string(side),
		Color:    string(s.color),
		SpinID:   id,
		Rotation: r.Rotation,
		Index:    r.Index,
		Token:    string(r.Token),
		Name:     r.Name,
		Glyph:    r.Glyph,
	})
	w.unlockAndPublish([]wheeldto.Event{ev})

	w.logger.Info("spin_result",
		zap.String("side", string(side)),
		zap.Uint64("spin_id", id),
		zap.String("token", string(tok)),
		zap.Int("index", idx))
	return r, true
}

// cancelLocked stops an in-flight spin and resets the side to the origin.
func (w *Wheel) cancelLocked(side Side) (wheeldto.Event, bool) {
	s := &w.sides[side.index()]
	wasSpinning := s.spinning
	id := s.spinID
	s.spinning = false
	s.rotation = 0
	if !wasSpinning {
		return wheeldto.Event{}, false
	}
	return wheeldto.SpinEventOf(wheeldto.EventSpinCanceled, wheeldto.SpinEvent{
		Side:   string(side),
		Color:  string(s.color),
		SpinID: id,
	}), true
}
