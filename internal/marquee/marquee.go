// Package marquee scrolls text across the LED display.
package marquee

import (
	"time"

	"github.com/fogleman/ease"
	"github.com/pkg/errors"
	"libdb.so/ledmatrix"
	"libdb.so/ledmatrix/internal/font"
)

// Config is the configuration of a scroll.
type Config struct {
	// Step is how long each position is held at full speed.
	Step time.Duration
	// Brightness is the brightness of the text.
	Brightness ledmatrix.Brightness
	// Ease slows the scroll down at its start and end. Positions near the
	// edges are held up to twice as long as Step.
	Ease bool
}

// speedRamp returns a ramp of length n that eases in from 0 to 1 over the
// first half and back to 0 over the second.
func speedRamp(n int) []float64 {
	ramp := make([]float64, n)
	if n < 2 {
		return ramp
	}
	increment := 1.0 / float64(n/2)
	for i, j := 0, n-1; i < n/2; i, j = i+1, j-1 {
		v := ease.InOutQuad(float64(i) * increment)
		ramp[i] = v
		ramp[j] = v
	}
	if n%2 == 1 {
		ramp[n/2] = 1
	}
	return ramp
}

// Frames returns the frames that scroll text in from the right edge of the
// display until it has left on the left edge.
func Frames(text string, cfg Config) ([]ledmatrix.Frame, error) {
	if text == "" {
		return nil, nil
	}

	width := font.TextWidth(text)
	n := ledmatrix.Columns + width + 1

	var ramp []float64
	if cfg.Ease {
		ramp = speedRamp(n)
	}

	frames := make([]ledmatrix.Frame, 0, n)
	for i := 0; i < n; i++ {
		var buf ledmatrix.PixelBuffer
		font.DrawText(&buf, text, ledmatrix.Columns-i)

		hold := cfg.Step
		if ramp != nil {
			hold += time.Duration(float64(cfg.Step) * (1 - ramp[i]))
		}

		f, err := ledmatrix.NewSetFrame(hold, buf, cfg.Brightness)
		if err != nil {
			return nil, errors.Wrapf(err, "scroll position %d", i)
		}
		frames = append(frames, f)
	}

	return frames, nil
}

// Scroll queues the frames of a scroll.
func Scroll(q ledmatrix.Enqueuer, text string, cfg Config) error {
	frames, err := Frames(text, cfg)
	if err != nil {
		return err
	}
	for _, f := range frames {
		if err := q.Enqueue(f); err != nil {
			return err
		}
	}
	return nil
}
