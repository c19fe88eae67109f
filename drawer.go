package ledmatrix

import (
	"image"
	"image/color"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Drawer exposes the display as a periph display.Drawer. Every Draw call
// updates an internal canvas and queues it as a set frame; Halt queues a
// clear frame.
type Drawer struct {
	q          Enqueuer
	duration   time.Duration
	brightness Brightness

	mu     sync.Mutex
	canvas PixelBuffer
}

var _ display.Drawer = (*Drawer)(nil)

// NewDrawer creates a Drawer that queues frames with the given duration and
// brightness.
func NewDrawer(q Enqueuer, duration time.Duration, brightness Brightness) *Drawer {
	return &Drawer{
		q:          q,
		duration:   duration,
		brightness: brightness,
	}
}

func (d *Drawer) String() string {
	return "ledmatrix"
}

// Halt clears the canvas and queues a clear frame.
func (d *Drawer) Halt() error {
	d.mu.Lock()
	d.canvas.Clear()
	d.mu.Unlock()
	return d.q.EnqueueClear(d.duration)
}

// ColorModel implements display.Drawer. The display is monochrome.
func (d *Drawer) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Drawer) Bounds() image.Rectangle {
	return image.Rect(0, 0, Columns, Rows)
}

// Draw implements display.Drawer. It copies the area r of the display from
// src starting at sp, like draw.Draw, and queues the result.
func (d *Drawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())

	d.mu.Lock()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y)
			d.canvas.SetPixel(x, y, bool(image1bit.BitModel.Convert(c).(image1bit.Bit)))
		}
	}
	canvas := d.canvas
	d.mu.Unlock()

	return d.q.EnqueueSet(d.duration, canvas, d.brightness)
}

// Canvas returns the current content of the canvas.
func (d *Drawer) Canvas() PixelBuffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.canvas
}
