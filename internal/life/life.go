// Package life runs Conway's Game of Life on the LED display.
//
// The board covers the 21 rightmost columns of the display and wraps around
// at every edge.
package life

import "libdb.so/ledmatrix"

const (
	// Width is the number of columns of the board.
	Width = 21
	// Height is the number of rows of the board.
	Height = ledmatrix.Rows
)

const rowMask = 1<<Width - 1

// Board is a Game of Life board. Each row is a bitmask, bit 0 being the
// rightmost cell.
type Board [Height]uint32

// FromBuffer creates a board from the content of a pixel buffer. The
// leftmost display column is not part of the board and is dropped.
func FromBuffer(buf ledmatrix.PixelBuffer) Board {
	var b Board
	for i, row := range buf {
		b[i] = row & rowMask
	}
	return b
}

// Buffer returns the board as a pixel buffer.
func (b Board) Buffer() ledmatrix.PixelBuffer {
	return ledmatrix.PixelBuffer(b)
}

// Alive reports whether the cell at column x (bit index) and row y is alive.
// Coordinates wrap around.
func (b Board) Alive(x, y int) bool {
	x = wrap(x, Width)
	y = wrap(y, Height)
	return b[y]>>uint(x)&1 == 1
}

// Empty returns true if no cell is alive.
func (b Board) Empty() bool {
	return b == Board{}
}

// neighbors counts the live neighbors of a cell.
func (b Board) neighbors(x, y int) int {
	var n int
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if (dx != 0 || dy != 0) && b.Alive(x+dx, y+dy) {
				n++
			}
		}
	}
	return n
}

// Step returns the next generation of the board.
func (b Board) Step() Board {
	var next Board
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			n := b.neighbors(x, y)
			if n == 3 || (n == 2 && b.Alive(x, y)) {
				next[y] |= 1 << uint(x)
			}
		}
	}
	return next
}

// SeedGlider returns a board holding a single glider.
func SeedGlider() Board {
	return Board{
		2: 0b00010000 << 8,
		3: 0b00001000 << 8,
		4: 0b00111000 << 8,
	}
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
