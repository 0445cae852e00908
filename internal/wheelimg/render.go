package wheelimg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultSize = 450

	minSize  = 64
	maxSize  = 2048
	arcStep  = 6.0
	emptyHex = "#BDBDBD"
)

var sliceColors = map[string]string{
	"pawn":     "#66BB6A",
	"knight":   "#00BCD4",
	"bishop":   "#03A9F4",
	"rook":     "#FFEB3B",
	"queen":    "#FF9800",
	"king":     "#F44336",
	"wildcard": "#9C27B0",
}

var sliceLabels = map[string]string{
	"pawn":     "P",
	"knight":   "N",
	"bishop":   "B",
	"rook":     "R",
	"queen":    "Q",
	"king":     "K",
	"wildcard": "*",
}

// Render draws a pie with one equal slice per token, clockwise from twelve
// o'clock in token order, turned by rotation degrees. A pointer marks the
// bottom of the wheel.
func Render(tokens []string, rotation float64, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if size < minSize || size > maxSize {
		return nil, fmt.Errorf("wheel image size %d out of range", size)
	}

	svg := buildSVG(tokens, rotation, size)
	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse wheel svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	drawLabels(img, tokens, rotation, size)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode wheel png: %w", err)
	}
	return buf.Bytes(), nil
}

func geometry(size int) (cx, cy, r float64) {
	cx = float64(size) / 2
	cy = float64(size) / 2
	r = float64(size)/2 - float64(size)/16
	return cx, cy, r
}

// point returns the position at angle deg (clockwise from up) and radius r.
func point(cx, cy, r, deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return cx + r*math.Sin(rad), cy - r*math.Cos(rad)
}

func buildSVG(tokens []string, rotation float64, size int) string {
	cx, cy, r := geometry(size)
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`, size, size, size, size)

	if len(tokens) == 0 {
		writeSlice(&b, cx, cy, r, 0, 360, emptyHex)
	} else {
		slice := 360 / float64(len(tokens))
		for i, tok := range tokens {
			start := rotation + float64(i)*slice
			fill, ok := sliceColors[tok]
			if !ok {
				fill = emptyHex
			}
			writeSlice(&b, cx, cy, r, start, start+slice, fill)
		}
	}

	// Pointer at the bottom, tip touching the rim.
	tipX, tipY := point(cx, cy, r-float64(size)/40, 180)
	base := float64(size) / 28
	fmt.Fprintf(&b, `<path d="M%.2f %.2fL%.2f %.2fL%.2f %.2fZ" fill="#212121"/>`,
		tipX, tipY, tipX-base, float64(size)-2, tipX+base, float64(size)-2)
	b.WriteString(`</svg>`)
	return b.String()
}

func writeSlice(b *strings.Builder, cx, cy, r, from, to float64, fill string) {
	fmt.Fprintf(b, `<path d="M%.2f %.2f`, cx, cy)
	for a := from; a < to; a += arcStep {
		x, y := point(cx, cy, r, a)
		fmt.Fprintf(b, "L%.2f %.2f", x, y)
	}
	x, y := point(cx, cy, r, to)
	fmt.Fprintf(b, `L%.2f %.2fZ" fill="%s" stroke="#FFFFFF" stroke-width="1.5"/>`, x, y, fill)
}

func drawLabels(dst draw.Image, tokens []string, rotation float64, size int) {
	if len(tokens) == 0 {
		return
	}
	cx, cy, r := geometry(size)
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Src: image.NewUniform(color.Black), Face: face}
	metrics := face.Metrics()
	slice := 360 / float64(len(tokens))
	for i, tok := range tokens {
		label, ok := sliceLabels[tok]
		if !ok {
			continue
		}
		x, y := point(cx, cy, r*0.7, rotation+(float64(i)+0.5)*slice)
		width := drawer.MeasureString(label).Round()
		baseline := int(y) + (metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
		drawer.Dot = fixed.P(int(x)-width/2, baseline)
		drawer.DrawString(label)
	}
}
