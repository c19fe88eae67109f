// Command ledbridge is the receiving end of the serial bridge transport. It
// runs on the machine the display is plugged into and replays the control
// messages it reads from a serial line onto the display.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
	"libdb.so/ledmatrix"
	"libdb.so/ledmatrix/transport"
)

var (
	config  = "ledmatrix.toml"
	verbose = false
	device  = ""
	output  = string(ledmatrix.USBTransport)
)

func init() {
	pflag.StringVarP(&config, "config", "c", config, "configuration file, TOML or YAML")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
	pflag.StringVarP(&device, "device", "d", device, "serial device to read from, overrides the configuration")
	pflag.StringVarP(&output, "output", "o", output, "where to replay messages: usb or sim")
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

func run() error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	if device != "" {
		cfg.Serial.Device = device
	}
	if cfg.Serial.Device == "" {
		return errors.New("no serial device configured")
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)
	defer cancel()

	port, err := serial.Open(cfg.Serial.Device, &serial.Mode{
		BaudRate: cfg.Serial.Baud,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open serial port")
	}

	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		port.Close()
		return errors.Wrap(err, "failed to set read timeout")
	}

	cfg.Transport = ledmatrix.TransportKind(output)
	display, err := transport.Open(cfg, os.Stdout, slog.Default())
	if err != nil {
		port.Close()
		return errors.Wrap(err, "failed to open display")
	}
	defer display.Close()

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		<-ctx.Done()
		// Unblock the relay's read.
		port.Close()
		return ctx.Err()
	})
	errg.Go(func() error {
		defer cancel()

		stats, err := transport.Relay(ctx, port, display, slog.Default())
		slog.Info(
			"bridge stopped",
			"forwarded", stats.Forwarded,
			"skipped_bytes", stats.Skipped,
			"invalid", stats.Invalid)

		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})

	if err := errg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func readConfig() (*ledmatrix.Config, error) {
	if _, err := os.Stat(config); err != nil && !pflag.CommandLine.Changed("config") {
		return ledmatrix.DefaultConfig(), nil
	}
	return ledmatrix.ParseConfigFile(config)
}
