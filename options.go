package vcpmon

import (
	"fmt"
	"time"

	"github.com/allbin/vcpmon/hotplug"
	"github.com/allbin/vcpmon/ingest"
	"github.com/allbin/vcpmon/lifecycle"
	"github.com/allbin/vcpmon/serial"
	"github.com/allbin/vcpmon/vcp"
	"github.com/rs/zerolog"
)

// Config collects everything Start needs
type Config struct {
	Logger zerolog.Logger

	LineCoding        vcp.LineCoding
	ConnectionTimeout time.Duration
	RetryBackoff      time.Duration
	Handshake         []byte
	ControlLines      bool
	Drivers           []vcp.Driver

	QueueDepth    int
	LineEnding    ingest.LineEnding
	StatusBytes   int
	SuppressEmpty bool
	Tap           func(ingest.Message)

	DevDir         string
	Scanner        hotplug.Scanner
	RescanInterval time.Duration

	StateHook func(from, to lifecycle.State)
}

// Option is a functional option for Start
type Option func(*Config) error

// DefaultConfig returns 115200 8N1, a 50 line queue and a 5s connection timeout
func DefaultConfig() Config {
	return Config{
		Logger:            zerolog.Nop(),
		LineCoding:        vcp.DefaultLineCoding(),
		ConnectionTimeout: vcp.DefaultConnectionTimeout,
		RetryBackoff:      lifecycle.DefaultRetryBackoff,
		Handshake:         []byte(lifecycle.DefaultHandshake),
		ControlLines:      true,
		QueueDepth:        ingest.DefaultQueueDepth,
		LineEnding:        ingest.LineEndingPermissive,
		StatusBytes:       ingest.DefaultStatusBytes,
		DevDir:            "/dev",
	}
}

// WithLogger sets the logger shared by all components
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// WithLineCoding sets the line coding applied to each device
func WithLineCoding(lc vcp.LineCoding) Option {
	return func(c *Config) error {
		if !serial.IsStandardBaudRate(lc.BaudRate) || lc.DataBits < 5 || lc.DataBits > 8 || (lc.StopBits != 1 && lc.StopBits != 2) {
			return fmt.Errorf("%w: line coding %s", ErrInvalidOption, lc)
		}
		c.LineCoding = lc
		return nil
	}
}

// WithConnectionTimeout sets how long each open attempt waits for a device
func WithConnectionTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return fmt.Errorf("%w: connection timeout %v", ErrInvalidOption, d)
		}
		c.ConnectionTimeout = d
		return nil
	}
}

// WithRetryBackoff sets the wait after a hard device error
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return fmt.Errorf("%w: retry backoff %v", ErrInvalidOption, d)
		}
		c.RetryBackoff = d
		return nil
	}
}

// WithHandshake sets the bytes sent to each configured device; empty disables it
func WithHandshake(data []byte) Option {
	return func(c *Config) error {
		c.Handshake = data
		return nil
	}
}

// WithControlLines sets whether DTR and RTS are raised on each device
func WithControlLines(assert bool) Option {
	return func(c *Config) error {
		c.ControlLines = assert
		return nil
	}
}

// WithDriver registers an extra driver after the built-in ones
func WithDriver(d vcp.Driver) Option {
	return func(c *Config) error {
		if d == nil {
			return fmt.Errorf("%w: nil driver", ErrInvalidOption)
		}
		c.Drivers = append(c.Drivers, d)
		return nil
	}
}

// WithQueueDepth sets the number of lines buffered for consumers
func WithQueueDepth(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return fmt.Errorf("%w: queue depth %d", ErrInvalidOption, n)
		}
		c.QueueDepth = n
		return nil
	}
}

// WithLineEnding sets how a carriage return without a line feed is handled
func WithLineEnding(le ingest.LineEnding) Option {
	return func(c *Config) error {
		c.LineEnding = le
		return nil
	}
}

// WithStatusBytes sets how many bytes follow an adapter status marker
func WithStatusBytes(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return fmt.Errorf("%w: status bytes %d", ErrInvalidOption, n)
		}
		c.StatusBytes = n
		return nil
	}
}

// WithSuppressEmpty drops empty lines
func WithSuppressEmpty() Option {
	return func(c *Config) error {
		c.SuppressEmpty = true
		return nil
	}
}

// WithTap sees every framed line before it is queued
func WithTap(fn func(ingest.Message)) Option {
	return func(c *Config) error {
		c.Tap = fn
		return nil
	}
}

// WithDevDir sets the directory watched for device nodes
func WithDevDir(dir string) Option {
	return func(c *Config) error {
		c.DevDir = dir
		return nil
	}
}

// WithScanner replaces the attached-device scanner
func WithScanner(s hotplug.Scanner) Option {
	return func(c *Config) error {
		c.Scanner = s
		return nil
	}
}

// WithRescanInterval adds periodic rescans to watcher events
func WithRescanInterval(d time.Duration) Option {
	return func(c *Config) error {
		c.RescanInterval = d
		return nil
	}
}

// WithStateHook is called on every lifecycle transition
func WithStateHook(fn func(from, to lifecycle.State)) Option {
	return func(c *Config) error {
		c.StateHook = fn
		return nil
	}
}
