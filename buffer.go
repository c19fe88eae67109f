package ledmatrix

import (
	"io"
	"strings"
)

const (
	// Rows is the number of rows on the display.
	Rows = 7
	// Columns is the number of addressable columns on the display.
	Columns = 22
	// ColumnMask masks the significant bits of a row.
	ColumnMask uint32 = 1<<Columns - 1
)

// PixelBuffer describes the display as a bitmap. Each row is a bitmask where
// bit 0 is the rightmost column and bit 21 is the leftmost one. Bits above
// column 21 are never set.
type PixelBuffer [Rows]uint32

// NewPixelBuffer creates a buffer from exactly 7 row bitmasks.
func NewPixelBuffer(rows ...uint32) (PixelBuffer, error) {
	var b PixelBuffer
	if len(rows) != Rows {
		return b, configErrorf("pixel buffer needs %d rows, got %d", Rows, len(rows))
	}
	for i, row := range rows {
		if row&^ColumnMask != 0 {
			return b, configErrorf("row %d has bits set above column %d", i, Columns-1)
		}
		b[i] = row
	}
	return b, nil
}

// Overlay ORs glyph into the destination buffer at the given offset. A
// positive xOffset moves the glyph right, a negative one moves it left. A
// positive yOffset moves the glyph down. Offsets outside [-20, 20]
// horizontally or [-6, 6] vertically discard the glyph entirely.
func Overlay(glyph PixelBuffer, into *PixelBuffer, xOffset, yOffset int) {
	if yOffset < -(Rows-1) || yOffset > Rows-1 || xOffset < -(Columns-2) || xOffset > Columns-2 {
		return
	}

	for i := range into {
		src := i - yOffset
		if src < 0 || src >= Rows {
			continue
		}

		row := glyph[src]
		if xOffset < 0 {
			row <<= uint(-xOffset)
		} else {
			row >>= uint(xOffset)
		}

		into[i] = (into[i] | row) & ColumnMask
	}
}

// Overlay is a shorthand for Overlay(glyph, b, xOffset, yOffset).
func (b *PixelBuffer) Overlay(glyph PixelBuffer, xOffset, yOffset int) {
	Overlay(glyph, b, xOffset, yOffset)
}

// Clear turns every pixel off.
func (b *PixelBuffer) Clear() {
	*b = PixelBuffer{}
}

// Invert flips every pixel.
func (b *PixelBuffer) Invert() {
	for i := range b {
		b[i] = ^b[i] & ColumnMask
	}
}

// IsZero returns true if no pixel is lit.
func (b PixelBuffer) IsZero() bool {
	return b == PixelBuffer{}
}

// Pixel reports whether the pixel at column x (counted from the left) and row
// y is lit. Coordinates outside the display are always off.
func (b PixelBuffer) Pixel(x, y int) bool {
	if x < 0 || x >= Columns || y < 0 || y >= Rows {
		return false
	}
	return b[y]>>uint(Columns-1-x)&1 == 1
}

// SetPixel sets the pixel at column x (counted from the left) and row y.
// Coordinates outside the display are ignored.
func (b *PixelBuffer) SetPixel(x, y int, on bool) {
	if x < 0 || x >= Columns || y < 0 || y >= Rows {
		return
	}
	bit := uint32(1) << uint(Columns-1-x)
	if on {
		b[y] |= bit
	} else {
		b[y] &^= bit
	}
}

// Render draws the buffer as a grid of on and off characters, one line per
// row, leftmost column first.
func (b PixelBuffer) Render(on, off byte) string {
	var sb strings.Builder
	sb.Grow(Rows * (Columns + 1))
	for _, row := range b {
		for j := Columns - 1; j >= 0; j-- {
			if row>>uint(j)&1 == 1 {
				sb.WriteByte(on)
			} else {
				sb.WriteByte(off)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String implements fmt.Stringer.
func (b PixelBuffer) String() string {
	return b.Render('#', '-')
}

// WriteTo implements io.WriterTo. It writes the buffer as a text grid.
func (b PixelBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
