package ledmatrix

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPixelBuffer(t *testing.T) {
	b, err := NewPixelBuffer(1, 2, 3, 4, 5, 6, ColumnMask)
	require.NoError(t, err)
	assert.Equal(t, PixelBuffer{1, 2, 3, 4, 5, 6, ColumnMask}, b)

	var cerr *ConfigurationError

	_, err = NewPixelBuffer(1, 2, 3)
	assert.True(t, errors.As(err, &cerr))

	_, err = NewPixelBuffer(0, 0, 0, 1<<Columns, 0, 0, 0)
	assert.True(t, errors.As(err, &cerr))
}

func TestOverlay(t *testing.T) {
	glyph := PixelBuffer{0b101, 0b010}

	tests := []struct {
		name string
		into PixelBuffer
		x, y int
		want PixelBuffer
	}{
		{
			name: "in place",
			x:    0, y: 0,
			want: PixelBuffer{0b101, 0b010},
		},
		{
			name: "left",
			x:    -3, y: 0,
			want: PixelBuffer{0b101000, 0b010000},
		},
		{
			name: "right",
			x:    1, y: 0,
			want: PixelBuffer{0b10, 0b01},
		},
		{
			name: "down",
			x:    0, y: 5,
			want: PixelBuffer{5: 0b101, 6: 0b010},
		},
		{
			name: "up",
			x:    0, y: -1,
			want: PixelBuffer{0: 0b010},
		},
		{
			name: "combines",
			into: PixelBuffer{0b1000, 0b1000},
			x:    0, y: 0,
			want: PixelBuffer{0b1101, 0b1010},
		},
		{
			name: "masked on the left edge",
			x:    -20, y: 0,
			want: PixelBuffer{1 << 20, 1 << 21},
		},
		{
			name: "too far left",
			into: PixelBuffer{1},
			x:    -21, y: 0,
			want: PixelBuffer{1},
		},
		{
			name: "too far right",
			x:    21, y: 0,
			want: PixelBuffer{},
		},
		{
			name: "too far down",
			x:    0, y: 7,
			want: PixelBuffer{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			into := test.into
			Overlay(glyph, &into, test.x, test.y)
			assert.Equal(t, test.want, into)
		})
	}
}

func TestPixelBufferInvert(t *testing.T) {
	b := PixelBuffer{0, ColumnMask, 0b1}
	b.Invert()
	assert.Equal(t, PixelBuffer{ColumnMask, 0, ColumnMask &^ 1, ColumnMask, ColumnMask, ColumnMask, ColumnMask}, b)

	b.Invert()
	assert.Equal(t, PixelBuffer{0, ColumnMask, 0b1}, b)
}

func TestPixelBufferClear(t *testing.T) {
	b := PixelBuffer{1, 2, 3}
	b.Clear()
	assert.True(t, b.IsZero())
	b.Clear()
	assert.True(t, b.IsZero())
}

func TestPixelBufferPixels(t *testing.T) {
	var b PixelBuffer
	b.SetPixel(0, 0, true)
	b.SetPixel(21, 6, true)
	b.SetPixel(22, 0, true)
	b.SetPixel(-1, 0, true)
	b.SetPixel(0, 7, true)

	assert.Equal(t, PixelBuffer{0: 1 << 21, 6: 1}, b)
	assert.True(t, b.Pixel(0, 0))
	assert.True(t, b.Pixel(21, 6))
	assert.False(t, b.Pixel(1, 0))
	assert.False(t, b.Pixel(22, 0))

	b.SetPixel(0, 0, false)
	assert.False(t, b.Pixel(0, 0))
}

func TestPixelBufferString(t *testing.T) {
	b := PixelBuffer{0: 1 << 21, 6: 0b11}

	want := "" +
		"#---------------------\n" +
		"----------------------\n" +
		"----------------------\n" +
		"----------------------\n" +
		"----------------------\n" +
		"----------------------\n" +
		"--------------------##\n"
	assert.Equal(t, want, b.String())

	var out bytes.Buffer
	n, err := b.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(len(want)), n)
	assert.Equal(t, want, out.String())
}
