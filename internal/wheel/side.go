package wheel

import (
	"errors"
	"math"
	"strings"
)

// Side is a display position. Left always belongs to the monitored user
// once a game is found.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Sides lists both positions in display order.
var Sides = []Side{Left, Right}

var ErrUnknownSide = errors.New("wheel: unknown side")

// ParseSide accepts "left" or "right" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Left:
		return Left, nil
	case Right:
		return Right, nil
	default:
		return "", ErrUnknownSide
	}
}

func (s Side) index() int {
	if s == Right {
		return 1
	}
	return 0
}

// SelectIndex maps a terminal rotation to the slice under the pointer for a
// wheel of n equal slices laid out in inventory order. The pointer sits 180
// degrees from the layout origin. It returns -1 when n is not positive.
func SelectIndex(n int, rotation float64) int {
	if n <= 0 {
		return -1
	}
	slice := 360 / float64(n)
	norm := normalize(rotation)
	idx := int(math.Floor((norm+180)/slice+0.5)) % n
	return (n - idx) % n
}

func normalize(deg float64) float64 {
	return math.Mod(math.Mod(deg, 360)+360, 360)
}
