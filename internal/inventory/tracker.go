package inventory

import "github.com/park285/piece-wheel/internal/board"

// Tracker keeps one side's inventory together with the counts it was last
// reconciled against.
type Tracker struct {
	prev *board.Counts
	inv  Inventory
}

// Update reconciles against cur and caches cur for the next call.
func (t *Tracker) Update(rng Rand, cur board.Counts) Inventory {
	t.inv = Reconcile(rng, t.prev, cur, t.inv)
	c := cur
	t.prev = &c
	return t.Inventory()
}

// Reset forgets counts and tokens so the next Update starts cold.
func (t *Tracker) Reset() {
	t.prev = nil
	t.inv = nil
}

// Inventory returns a copy of the current tokens.
func (t *Tracker) Inventory() Inventory {
	return append(Inventory(nil), t.inv...)
}

// Len reports the number of tokens.
func (t *Tracker) Len() int { return len(t.inv) }

// At returns the token at index i.
func (t *Tracker) At(i int) Token { return t.inv[i] }

// Counts returns the counts of the last Update; ok is false before the first one.
func (t *Tracker) Counts() (board.Counts, bool) {
	if t.prev == nil {
		return board.Counts{}, false
	}
	return *t.prev, true
}
