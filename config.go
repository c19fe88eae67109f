package ledmatrix

import (
	"encoding"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultMaxFrameLength is the default longest time the engine sleeps for a
// single frame.
const DefaultMaxFrameLength = 100 * time.Millisecond

// Config is the configuration for the LED matrix engine.
type Config struct {
	// Transport is the kind of transport used to reach the display.
	Transport TransportKind `toml:"transport" yaml:"transport"`
	// MaxFrameLength is the longest time the engine sleeps for a single
	// frame. Longer frames are split. It also bounds how long Stop takes.
	MaxFrameLength Duration `toml:"max_frame_length" yaml:"max_frame_length"`
	// Brightness is the initial brightness of the display.
	Brightness Brightness `toml:"brightness" yaml:"brightness"`
	// USB is the configuration for the USB transport.
	USB USBConfig `toml:"usb" yaml:"usb"`
	// Serial is the configuration for the serial bridge transport.
	Serial SerialConfig `toml:"serial" yaml:"serial"`
}

// TransportKind is the kind of transport used to reach the display.
type TransportKind string

const (
	// USBTransport talks to the display directly over USB control transfers.
	USBTransport TransportKind = "usb"
	// SerialTransport forwards control messages to a serial bridge.
	SerialTransport TransportKind = "serial"
	// SimTransport renders the display on the terminal.
	SimTransport TransportKind = "sim"
)

// USBConfig is the configuration for the USB transport.
type USBConfig struct {
	// VendorID is the USB vendor ID of the display.
	VendorID uint16 `toml:"vendor_id" yaml:"vendor_id"`
	// ProductID is the USB product ID of the display.
	ProductID uint16 `toml:"product_id" yaml:"product_id"`
	// Timeout is the timeout of a single control transfer.
	Timeout Duration `toml:"timeout" yaml:"timeout"`
}

// SerialConfig is the configuration for the serial bridge transport.
type SerialConfig struct {
	// Device is the path to the device file of the bridge.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0.
	Device string `toml:"device" yaml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud" yaml:"baud"`
}

// DefaultConfig returns the default configuration: the USB display at full
// brightness.
func DefaultConfig() *Config {
	c := Config{Brightness: Bright}
	c.setDefaults()
	return &c
}

// setDefaults fills in unset fields. Brightness is not touched since its zero
// value is Dim; callers seed it before decoding.
func (c *Config) setDefaults() {
	if c.Transport == "" {
		c.Transport = USBTransport
	}
	if c.MaxFrameLength == 0 {
		c.MaxFrameLength = Duration(DefaultMaxFrameLength)
	}
	if c.USB.VendorID == 0 && c.USB.ProductID == 0 {
		c.USB.VendorID = 0x1d34
		c.USB.ProductID = 0x0013
	}
	if c.USB.Timeout == 0 {
		c.USB.Timeout = Duration(time.Second)
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = 115200
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Transport {
	case USBTransport:
		if c.USB.VendorID == 0 && c.USB.ProductID == 0 {
			return errors.New("no USB vendor or product ID configured")
		}
	case SerialTransport:
		if c.Serial.Device == "" {
			return errors.New("no serial device configured")
		}
		if c.Serial.Baud <= 0 {
			return fmt.Errorf("invalid baud rate %d", c.Serial.Baud)
		}
	case SimTransport:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}

	if d := time.Duration(c.MaxFrameLength); d < time.Millisecond || d > MaxFrameDuration {
		return fmt.Errorf("max frame length %v out of range [1ms, %v]", d, MaxFrameDuration)
	}

	if c.Brightness > Bright {
		return fmt.Errorf("initial brightness must be dim, medium or bright, got %v", c.Brightness)
	}

	return nil
}

// Duration is a duration that can be parsed from TOML and YAML.
type Duration time.Duration

var (
	_ encoding.TextUnmarshaler = (*Duration)(nil)
	_ encoding.TextMarshaler   = (*Duration)(nil)
)

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseConfig parses a TOML configuration from a reader. Fields missing from
// the input keep their default values.
func ParseConfig(r io.Reader) (*Config, error) {
	config := Config{Brightness: Bright}
	if err := toml.NewDecoder(r).Decode(&config); err != nil {
		return nil, err
	}
	config.setDefaults()
	return &config, nil
}

// ParseYAMLConfig parses a YAML configuration from a reader. Fields missing
// from the input keep their default values.
func ParseYAMLConfig(r io.Reader) (*Config, error) {
	config := Config{Brightness: Bright}
	if err := yaml.NewDecoder(r).Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	config.setDefaults()
	return &config, nil
}

// ParseConfigFile parses the configuration file at the given path. Files
// ending in .yaml or .yml are parsed as YAML, everything else as TOML.
func ParseConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer f.Close()

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = ParseYAMLConfig(f)
	default:
		cfg, err = ParseConfig(f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return cfg, nil
}
