package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"libdb.so/ledmatrix"
	"libdb.so/ledmatrix/internal/clock"
	"libdb.so/ledmatrix/internal/font"
	"libdb.so/ledmatrix/internal/marquee"
	"libdb.so/ledmatrix/internal/shell"
	"libdb.so/ledmatrix/transport"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

var (
	config        = "ledmatrix.toml"
	verbose       = false
	mode          = "clock"
	text          = "HELLO"
	transportKind = ""
	segment       = false
)

func init() {
	pflag.StringVarP(&config, "config", "c", config, "configuration file, TOML or YAML")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
	pflag.StringVarP(&mode, "mode", "m", mode, "what to show: clock, life, text, scroll or shell")
	pflag.StringVarP(&text, "text", "t", text, "text for the text and scroll modes")
	pflag.StringVar(&transportKind, "transport", transportKind, "override the configured transport: usb, serial or sim")
	pflag.BoolVar(&segment, "segment", segment, "draw clock digits in seven segment style")
}

func main() {
	pflag.Parse()

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// shutdownTimeout bounds how long the final clear frame may take to reach the
// display.
const shutdownTimeout = 2 * time.Second

func run() error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	if transportKind != "" {
		cfg.Transport = ledmatrix.TransportKind(transportKind)
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)
	defer cancel()

	t, err := transport.Open(cfg, os.Stdout, slog.Default())
	if err != nil {
		return errors.Wrap(err, "failed to open transport")
	}

	engine, err := ledmatrix.NewEngine(cfg, t, slog.Default())
	if err != nil {
		t.Close()
		return errors.Wrap(err, "failed to create engine")
	}

	if err := engine.Start(); err != nil {
		return errors.Wrap(err, "failed to start engine")
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return runMode(ctx, engine, cfg)
	})
	g.Go(func() error {
		logStats(ctx, engine)
		return nil
	})

	runErr := g.Wait()
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	if err := shutdown(engine); err != nil {
		slog.Warn(
			"failed to shut down cleanly",
			"error", err)
	}

	return runErr
}

// shutdown blanks the display and stops the engine.
func shutdown(engine *ledmatrix.Engine) error {
	engine.Discard()
	if err := engine.EnqueueClear(0); err != nil {
		return errors.Wrap(err, "failed to queue clear frame")
	}

	deadline := time.Now().Add(shutdownTimeout)
	for engine.Pending() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	return engine.Stop()
}

func runMode(ctx context.Context, engine *ledmatrix.Engine, cfg *ledmatrix.Config) error {
	style := font.PlainStyle
	if segment {
		style = font.SegmentStyle
	}

	switch mode {
	case "clock", "life":
		c, err := clock.New(clock.Config{
			Style:      style,
			Brightness: ledmatrix.NoChange,
			Life:       mode == "life",
		}, slog.Default())
		if err != nil {
			return err
		}
		return c.Run(ctx, engine)

	case "text":
		return showText(ctx, engine, cfg)

	case "scroll":
		return scrollText(ctx, engine)

	case "shell":
		sh := shell.New(engine, os.Stdout, slog.Default())
		sh.SetStats(engine.Stats)
		return sh.Run(ctx, os.Stdin)

	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

// showText draws the text through the image drawing surface and holds it
// until the context is canceled.
func showText(ctx context.Context, engine *ledmatrix.Engine, cfg *ledmatrix.Config) error {
	var buf ledmatrix.PixelBuffer
	font.DrawText(&buf, text, 0)

	drawer := ledmatrix.NewDrawer(engine, time.Duration(cfg.MaxFrameLength), cfg.Brightness)

	img := image1bit.NewVerticalLSB(drawer.Bounds())
	for y := 0; y < ledmatrix.Rows; y++ {
		for x := 0; x < ledmatrix.Columns; x++ {
			img.SetBit(x, y, image1bit.Bit(buf.Pixel(x, y)))
		}
	}

	if err := drawer.Draw(drawer.Bounds(), img, image.Point{}); err != nil {
		return errors.Wrap(err, "failed to draw text")
	}

	<-ctx.Done()
	return ctx.Err()
}

// scrollText scrolls the text over and over until the context is canceled.
func scrollText(ctx context.Context, engine *ledmatrix.Engine) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if engine.Pending() == 0 {
			err := marquee.Scroll(engine, text, marquee.Config{
				Step:       80 * time.Millisecond,
				Brightness: ledmatrix.NoChange,
				Ease:       true,
			})
			if err != nil {
				return errors.Wrap(err, "failed to queue scroll")
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func logStats(ctx context.Context, engine *ledmatrix.Engine) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := engine.Stats()
			slog.Debug(
				"engine stats",
				"iterations", st.Iterations,
				"applied", st.Applied,
				"splits", st.Splits,
				"transport_errors", st.TransportErrors,
				"pending", engine.Pending())
		}
	}
}

func readConfig() (*ledmatrix.Config, error) {
	if _, err := os.Stat(config); err != nil && !pflag.CommandLine.Changed("config") {
		slog.Debug(
			"no configuration file, using defaults",
			"path", config)
		return ledmatrix.DefaultConfig(), nil
	}

	return ledmatrix.ParseConfigFile(config)
}
