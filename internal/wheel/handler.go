package wheel

import (
	"github.com/park285/piece-wheel/internal/board"
	"github.com/park285/piece-wheel/pkg/wheeldto"
	"go.uber.org/zap"
)

// GameFound assigns colors to sides and starts both inventories cold.
func (w *Wheel) GameFound(g wheeldto.GameFound) {
	w.mu.Lock()
	var events []wheeldto.Event
	left := board.Color(g.LeftColor)
	if left != board.White && left != board.Black {
		left = board.White
	}
	w.sides[Left.index()].color = left
	w.sides[Right.index()].color = left.Opposite()
	for _, side := range Sides {
		if ev, ok := w.cancelLocked(side); ok {
			events = append(events, ev)
		}
		s := &w.sides[side.index()]
		s.tracker.Reset()
		s.last = nil
	}
	g.LeftColor = string(left)
	g.RightColor = string(left.Opposite())
	game := g
	w.game = &game
	events = append(events, wheeldto.GameFoundEvent(g))
	w.unlockAndPublish(events)

	w.logger.Info("wheel_game_found",
		zap.String("game_id", g.GameID),
		zap.String("left_color", g.LeftColor))
}

// Position reconciles both sides against a new snapshot in one step and
// interrupts any spin still in flight.
func (w *Wheel) Position(snap board.Snapshot) {
	w.mu.Lock()
	var events []wheeldto.Event
	for _, side := range Sides {
		s := &w.sides[side.index()]
		s.tracker.Update(w.rng, snap.Side(s.color))
		if ev, ok := w.cancelLocked(side); ok {
			events = append(events, ev)
		}
	}
	events = append(events, wheeldto.InventoryEvent(wheeldto.InventoryUpdated{Sides: w.sideStatesLocked()}))
	w.unlockAndPublish(events)

	w.logger.Debug("wheel_inventory_updated",
		zap.Int("white_total", snap.White.Total),
		zap.Int("black_total", snap.Black.Total))
}

// GameEnded forgets the current game; inventories stay visible until the next one.
func (w *Wheel) GameEnded(gameID string) {
	w.mu.Lock()
	w.game = nil
	w.unlockAndPublish([]wheeldto.Event{wheeldto.GameEndedEvent(wheeldto.GameEnded{GameID: gameID})})
}

// Status records and forwards a user-facing status line.
func (w *Wheel) Status(st wheeldto.Status) {
	w.mu.Lock()
	s := st
	w.status = &s
	w.unlockAndPublish([]wheeldto.Event{wheeldto.StatusEvent(st)})
}

// State returns a snapshot for late joiners. Monitor is left for the caller.
func (w *Wheel) State() wheeldto.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := wheeldto.State{Sides: w.sideStatesLocked()}
	if w.game != nil {
		g := *w.game
		st.Game = &g
	}
	if w.status != nil {
		s := *w.status
		st.Status = &s
	}
	return st
}

// Layout is what a renderer needs to draw one side.
type Layout struct {
	Side     Side
	Color    board.Color
	Tokens   []string
	Rotation float64
	Spinning bool
	Last     *Result
}

// Layout returns the current drawing state of side.
func (w *Wheel) Layout(side Side) (Layout, error) {
	if side != Left && side != Right {
		return Layout{}, ErrUnknownSide
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	s := &w.sides[side.index()]
	l := Layout{
		Side:     side,
		Color:    s.color,
		Tokens:   s.tracker.Inventory().Strings(),
		Rotation: s.rotation,
		Spinning: s.spinning,
	}
	if s.last != nil {
		r := *s.last
		l.Last = &r
	}
	return l, nil
}

func (w *Wheel) sideStatesLocked() []wheeldto.SideState {
	out := make([]wheeldto.SideState, 0, len(Sides))
	for _, side := range Sides {
		s := &w.sides[side.index()]
		st := wheeldto.SideState{
			Side:     string(side),
			Color:    string(s.color),
			Counts:   make(map[string]int, len(board.Kinds)),
			Tokens:   s.tracker.Inventory().Strings(),
			Spinning: s.spinning,
			Rotation: s.rotation,
		}
		if c, ok := s.tracker.Counts(); ok {
			for _, k := range board.Kinds {
				st.Counts[string(k)] = c.Of(k)
			}
			st.Total = c.Total
		}
		out = append(out, st)
	}
	return out
}
