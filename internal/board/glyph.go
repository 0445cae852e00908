package board

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"
)

// Text presentation selector; without it some fonts draw the black pawn as an emoji.
const textPresentation = "\uFE0E"

// Glyph returns the Unicode chess symbol for kind k in color c.
func Glyph(k Kind, c Color) string {
	pt := k.PieceType()
	if pt == nchess.NoPieceType {
		return string(k)
	}
	s := nchess.NewPiece(pt, c.chessColor()).String()
	if k == Pawn && c == Black {
		s += textPresentation
	}
	return s
}

// Validate checks the board field strictly. Parse stays lenient; callers use
// Validate only to flag suspicious input.
func Validate(encoding string) error {
	field := firstField(encoding)
	if field == "" {
		return fmt.Errorf("empty board encoding")
	}
	if _, err := nchess.FEN(field + " w - - 0 1"); err != nil {
		return fmt.Errorf("invalid board encoding %q: %w", field, err)
	}
	return nil
}
