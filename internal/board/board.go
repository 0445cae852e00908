package board

import (
	"strings"
	"unicode"

	nchess "github.com/corentings/chess/v2"
)

// Color identifies a side by piece color.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opposite returns the other color.
func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// Kind is one of the six material kinds.
type Kind string

const (
	Pawn   Kind = "pawn"
	Knight Kind = "knight"
	Bishop Kind = "bishop"
	Rook   Kind = "rook"
	Queen  Kind = "queen"
	King   Kind = "king"
)

// Kinds lists the material kinds in canonical order.
var Kinds = []Kind{Pawn, Knight, Bishop, Rook, Queen, King}

// Counts is one side's material count. Total is always the sum of the kinds.
type Counts struct {
	Pawn   int `json:"pawn"`
	Knight int `json:"knight"`
	Bishop int `json:"bishop"`
	Rook   int `json:"rook"`
	Queen  int `json:"queen"`
	King   int `json:"king"`
	Total  int `json:"total"`
}

// Of returns the count for kind k.
func (c Counts) Of(k Kind) int {
	switch k {
	case Pawn:
		return c.Pawn
	case Knight:
		return c.Knight
	case Bishop:
		return c.Bishop
	case Rook:
		return c.Rook
	case Queen:
		return c.Queen
	case King:
		return c.King
	default:
		return 0
	}
}

func (c *Counts) add(k Kind) {
	switch k {
	case Pawn:
		c.Pawn++
	case Knight:
		c.Knight++
	case Bishop:
		c.Bishop++
	case Rook:
		c.Rook++
	case Queen:
		c.Queen++
	case King:
		c.King++
	default:
		return
	}
	c.Total++
}

// Snapshot holds both colors' counts for one observed position.
type Snapshot struct {
	White Counts `json:"white"`
	Black Counts `json:"black"`
}

// Side returns the counts for color c.
func (s Snapshot) Side(c Color) Counts {
	if c == Black {
		return s.Black
	}
	return s.White
}

// Parse counts pieces in a FEN-style board field. Only the first
// whitespace-delimited field is read. Unknown symbols are skipped and
// contribute to no counter; Parse never fails.
func Parse(encoding string) Snapshot {
	var snap Snapshot
	field := firstField(encoding)
	for _, r := range field {
		if r == '/' || unicode.IsDigit(r) {
			continue
		}
		kind, ok := kindFromLetter(unicode.ToLower(r))
		if !ok {
			continue
		}
		if unicode.IsUpper(r) {
			snap.White.add(kind)
		} else {
			snap.Black.add(kind)
		}
	}
	return snap
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func kindFromLetter(r rune) (Kind, bool) {
	switch r {
	case 'p':
		return Pawn, true
	case 'n':
		return Knight, true
	case 'b':
		return Bishop, true
	case 'r':
		return Rook, true
	case 'q':
		return Queen, true
	case 'k':
		return King, true
	default:
		return "", false
	}
}

// PieceType maps a kind to its chess library type.
func (k Kind) PieceType() nchess.PieceType {
	switch k {
	case Pawn:
		return nchess.Pawn
	case Knight:
		return nchess.Knight
	case Bishop:
		return nchess.Bishop
	case Rook:
		return nchess.Rook
	case Queen:
		return nchess.Queen
	case King:
		return nchess.King
	default:
		return nchess.NoPieceType
	}
}

func (c Color) chessColor() nchess.Color {
	if c == Black {
		return nchess.Black
	}
	return nchess.White
}
