package inventory

import (
	"slices"
	"sort"

	"github.com/park285/piece-wheel/internal/board"
)

// Token is one slot on a wheel: a material kind or the wildcard.
type Token string

// Wildcard carries no material meaning; exactly one sits on every non-empty wheel.
const Wildcard Token = "wildcard"

// TokenOf converts a material kind to its token.
func TokenOf(k board.Kind) Token { return Token(k) }

// Kind returns the material kind for t; ok is false for the wildcard.
func (t Token) Kind() (board.Kind, bool) {
	if t == Wildcard {
		return "", false
	}
	return board.Kind(t), true
}

// Glyph returns the display symbol for t drawn in color c.
func (t Token) Glyph(c board.Color) string {
	if t == Wildcard {
		return "🃏"
	}
	return board.Glyph(board.Kind(t), c)
}

// Inventory is an ordered multiset of tokens. Order drives slice layout only.
type Inventory []Token

// Count returns how many times t occurs.
func (inv Inventory) Count(t Token) int {
	n := 0
	for _, x := range inv {
		if x == t {
			n++
		}
	}
	return n
}

// Strings returns the tokens as plain strings.
func (inv Inventory) Strings() []string {
	out := make([]string, len(inv))
	for i, t := range inv {
		out[i] = string(t)
	}
	return out
}

// Rand is the randomness the reconciler needs.
type Rand interface {
	IntN(n int) int
}

// Build creates a fresh inventory from counts: every kind repeated per its
// count, one wildcard appended, then a full Fisher-Yates pass.
func Build(rng Rand, cur board.Counts) Inventory {
	inv := make(Inventory, 0, cur.Total+1)
	for _, k := range board.Kinds {
		for i := 0; i < cur.Of(k); i++ {
			inv = append(inv, TokenOf(k))
		}
	}
	inv = append(inv, Wildcard)
	shuffle(rng, len(inv), func(i, j int) { inv[i], inv[j] = inv[j], inv[i] })
	return inv
}

// Reconcile adjusts inv so that each kind matches cur. Without previous counts
// or with an empty inventory it falls back to Build. Otherwise losses remove
// uniformly random holders of the kind, gains append at the end, and
// untouched tokens keep their order.
func Reconcile(rng Rand, prev *board.Counts, cur board.Counts, inv Inventory) Inventory {
	if prev == nil || len(inv) == 0 {
		return Build(rng, cur)
	}
	out := slices.Clone(inv)
	for _, k := range board.Kinds {
		delta := cur.Of(k) - prev.Of(k)
		switch {
		case delta < 0:
			out = removeRandom(rng, out, TokenOf(k), -delta)
		case delta > 0:
			for i := 0; i < delta; i++ {
				out = append(out, TokenOf(k))
			}
		}
	}
	if !slices.Contains(out, Wildcard) {
		out = append(out, Wildcard)
	}
	return out
}

// removeRandom drops n instances of t chosen uniformly among its current
// positions. Indices are removed highest first so earlier ones stay valid.
func removeRandom(rng Rand, inv Inventory, t Token, n int) Inventory {
	var idx []int
	for i, x := range inv {
		if x == t {
			idx = append(idx, i)
		}
	}
	shuffle(rng, len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	if n > len(idx) {
		n = len(idx)
	}
	victims := idx[:n]
	sort.Sort(sort.Reverse(sort.IntSlice(victims)))
	for _, i := range victims {
		inv = slices.Delete(inv, i, i+1)
	}
	return inv
}

func shuffle(rng Rand, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, rng.IntN(i+1))
	}
}
