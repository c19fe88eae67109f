// Package font contains the glyphs used to draw text and clock faces onto a
// pixel buffer.
package font

import (
	"unicode"

	"github.com/pkg/errors"
	"libdb.so/ledmatrix"
)

// GlyphWidth is the width of an ASCII glyph in columns.
const GlyphWidth = 5

// GlyphSpacing is the number of blank columns between two glyphs.
const GlyphSpacing = 1

// minOffset is the smallest horizontal offset Overlay accepts.
const minOffset = -(ledmatrix.Columns - 2)

// ErrBadArgs is returned when a clock face cannot be drawn.
var ErrBadArgs = errors.New("bad arguments")

// TimeStyle is the style of the clock digits.
type TimeStyle uint8

const (
	// PlainStyle draws rounded digits.
	PlainStyle TimeStyle = iota
	// SegmentStyle draws seven segment digits.
	SegmentStyle
)

// Glyph returns the glyph for the given rune. Lower case letters map to
// their upper case glyphs. It returns false if there is no glyph for r.
func Glyph(r rune) (ledmatrix.PixelBuffer, bool) {
	g, ok := ascii[unicode.ToUpper(r)]
	return g, ok
}

// TimeDigit returns the clock digit d in the given style.
func TimeDigit(d int, style TimeStyle) ledmatrix.PixelBuffer {
	if style == SegmentStyle {
		return segmentDigits[d%10]
	}
	return timeDigits[d%10]
}

// DrawTime clears buf and draws a clock face showing hhmm, e.g. 1234 for
// 12:34.
func DrawTime(buf *ledmatrix.PixelBuffer, hhmm int, style TimeStyle) error {
	if hhmm < 0 || hhmm > 9999 || style > SegmentStyle {
		return ErrBadArgs
	}

	buf.Clear()
	buf.Overlay(timeColon, 0, 0)
	buf.Overlay(TimeDigit(hhmm, style), 0, 0)
	buf.Overlay(TimeDigit(hhmm/10, style), -5, 0)
	buf.Overlay(TimeDigit(hhmm/100, style), -12, 0)
	buf.Overlay(TimeDigit(hhmm/1000, style), -17, 0)
	return nil
}

// DrawText draws text into buf with its first glyph starting at display
// column x, counted from the left. x may be negative to scroll text out to
// the left. Runes without a glyph are drawn as '?'. Glyphs are combined with
// what is already in buf.
func DrawText(buf *ledmatrix.PixelBuffer, text string, x int) {
	for _, r := range text {
		g, ok := Glyph(r)
		if !ok {
			g = ascii['?']
		}
		// A glyph at offset 0 is flush with the right edge of the display.
		off := x - (ledmatrix.Columns - GlyphWidth)
		if off < minOffset {
			// Overlay drops glyphs past its bound even if a column would
			// still show, so move those the rest of the way here.
			for i := range g {
				g[i] <<= uint(minOffset - off)
			}
			off = minOffset
		}
		buf.Overlay(g, off, 0)
		x += GlyphWidth + GlyphSpacing
	}
}

// TextWidth returns the width of the drawn text in columns.
func TextWidth(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return n*(GlyphWidth+GlyphSpacing) - GlyphSpacing
}
