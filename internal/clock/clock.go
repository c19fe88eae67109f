// Package clock shows the time of day on the LED display, optionally letting
// the digits dissolve into a Game of Life between minutes.
package clock

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"libdb.so/ledmatrix"
	"libdb.so/ledmatrix/internal/font"
	"libdb.so/ledmatrix/internal/life"
)

// Config is the configuration of a clock.
type Config struct {
	// Style is the style of the digits.
	Style font.TimeStyle
	// Brightness is the brightness of the clock face.
	Brightness ledmatrix.Brightness
	// Life evolves the clock face as a Game of Life board once per second.
	// The time is redrawn on every minute.
	Life bool
	// Interval is how often the clock checks the time. It is also the
	// duration of every queued frame.
	Interval time.Duration
}

// Clock renders the time of day.
type Clock struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	minute  int // hhmm of the last drawn face, -1 before the first one
	evolved time.Time
	board   life.Board
}

// New creates a new clock. It fails if the digit style is unknown.
func New(cfg Config, logger *slog.Logger) (*Clock, error) {
	if cfg.Style != font.PlainStyle && cfg.Style != font.SegmentStyle {
		return nil, errors.Errorf("unknown clock style %d", cfg.Style)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 100 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Clock{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		minute: -1,
	}, nil
}

// Tick advances the clock to now. It returns the buffer to show and true if
// the display needs an update.
func (c *Clock) Tick(now time.Time) (ledmatrix.PixelBuffer, bool) {
	hhmm := 100*now.Hour() + now.Minute()

	if hhmm != c.minute {
		var buf ledmatrix.PixelBuffer
		if err := font.DrawTime(&buf, hhmm, c.cfg.Style); err != nil {
			c.logger.Error(
				"failed to draw clock face",
				"time", hhmm,
				"error", err)
			return ledmatrix.PixelBuffer{}, false
		}
		c.minute = hhmm
		c.evolved = now.Truncate(time.Second)
		c.board = life.FromBuffer(buf)
		return buf, true
	}

	if !c.cfg.Life || now.Sub(c.evolved) < time.Second {
		return ledmatrix.PixelBuffer{}, false
	}

	c.evolved = now.Truncate(time.Second)
	c.board = c.board.Step()
	if c.board.Empty() {
		c.logger.Debug("board died out, seeding a glider")
		c.board = life.SeedGlider()
	}

	return c.board.Buffer(), true
}

// Run queues clock faces until the context is canceled.
func (c *Clock) Run(ctx context.Context, q ledmatrix.Enqueuer) error {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		if buf, ok := c.Tick(c.now()); ok {
			if err := q.EnqueueSet(c.cfg.Interval, buf, c.cfg.Brightness); err != nil {
				return errors.Wrap(err, "failed to queue clock face")
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
