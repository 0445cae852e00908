package board

import "testing"

func TestParseStartingPosition(t *testing.T) {
	snap := Parse("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	want := Counts{Pawn: 8, Knight: 2, Bishop: 2, Rook: 2, Queen: 1, King: 1, Total: 16}
	if snap.White != want {
		t.Fatalf("white = %+v, want %+v", snap.White, want)
	}
	if snap.Black != want {
		t.Fatalf("black = %+v, want %+v", snap.Black, want)
	}
}

func TestParseEmptyBoard(t *testing.T) {
	snap := Parse("8/8/8/8/8/8/8/8")
	if snap.White.Total != 0 || snap.Black.Total != 0 {
		t.Fatalf("expected empty counts, got %+v", snap)
	}
}

func TestParseReadsFirstFieldOnly(t *testing.T) {
	snap := Parse("4k3/8/8/8/8/8/8/4K3 b KQkq - 0 1 QQQQ")
	if snap.White.Queen != 0 || snap.White.King != 1 || snap.Black.King != 1 {
		t.Fatalf("unexpected counts %+v", snap)
	}
}

func TestParseIgnoresUnknownSymbols(t *testing.T) {
	snap := Parse("4k3/8/xZ?8/8/8/8/8/4K2R")
	if snap.White.Total != 2 || snap.Black.Total != 1 {
		t.Fatalf("unknown symbols counted: %+v", snap)
	}
}

func TestParseTotalIsSumOfKinds(t *testing.T) {
	for _, enc := range []string{
		"r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4",
		"8/5k2/8/8/3Q4/8/1K6/8 w - - 0 1",
		"",
		"   ",
		"garbage",
	} {
		snap := Parse(enc)
		for _, c := range []Color{White, Black} {
			counts := snap.Side(c)
			sum := 0
			for _, k := range Kinds {
				sum += counts.Of(k)
			}
			if sum != counts.Total {
				t.Fatalf("%q %s: sum=%d total=%d", enc, c, sum, counts.Total)
			}
		}
	}
}

func TestGlyphs(t *testing.T) {
	cases := []struct {
		k    Kind
		c    Color
		want string
	}{
		{Pawn, White, "♙"},
		{Knight, White, "♘"},
		{King, White, "♔"},
		{Pawn, Black, "♟\uFE0E"},
		{Queen, Black, "♛"},
		{Rook, Black, "♜"},
	}
	for _, tc := range cases {
		if got := Glyph(tc.k, tc.c); got != tc.want {
			t.Fatalf("Glyph(%s,%s) = %q, want %q", tc.k, tc.c, got, tc.want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"); err != nil {
		t.Fatalf("valid board rejected: %v", err)
	}
	if err := Validate("rnbqkbnr/ppxppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"); err == nil {
		t.Fatalf("expected error for unknown symbol")
	}
	if err := Validate(""); err == nil {
		t.Fatalf("expected error for empty encoding")
	}
}

func TestOpposite(t *testing.T) {
	if White.Opposite() != Black || Black.Opposite() != White {
		t.Fatalf("Opposite broken")
	}
}
