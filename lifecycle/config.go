package lifecycle

import (
	"time"

	"github.com/allbin/vcpmon/vcp"
	"github.com/rs/zerolog"
)

// DefaultHandshake is sent once a device is configured
const DefaultHandshake = "test_string"

// Defaults for Config
const (
	DefaultRetryBackoff = time.Second
	handshakeTimeout    = time.Second
)

// Config holds the session policy
type Config struct {
	LineCoding         vcp.LineCoding
	Handshake          []byte // sent after configuration, empty for none
	AssertControlLines bool   // raise DTR and RTS after the handshake
	RetryBackoff       time.Duration
	OnStateChange      func(from, to State)
	Logger             zerolog.Logger
}

// Option is a functional option for NewManager
type Option func(*Config)

// DefaultConfig returns 115200 8N1 with the handshake and control lines asserted
func DefaultConfig() Config {
	return Config{
		LineCoding:         vcp.DefaultLineCoding(),
		Handshake:          []byte(DefaultHandshake),
		AssertControlLines: true,
		RetryBackoff:       DefaultRetryBackoff,
		Logger:             zerolog.Nop(),
	}
}

// WithLineCoding sets the line coding applied to every device
func WithLineCoding(lc vcp.LineCoding) Option {
	return func(c *Config) {
		c.LineCoding = lc
	}
}

// WithHandshake sets the bytes sent after configuration. An empty value
// disables the handshake.
func WithHandshake(data []byte) Option {
	return func(c *Config) {
		c.Handshake = data
	}
}

// WithControlLines sets whether DTR and RTS are raised after configuration
func WithControlLines(assert bool) Option {
	return func(c *Config) {
		c.AssertControlLines = assert
	}
}

// WithRetryBackoff sets the wait after a hard error
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Config) {
		c.RetryBackoff = d
	}
}

// WithStateHook registers a function called on every state transition
func WithStateHook(fn func(from, to State)) Option {
	return func(c *Config) {
		c.OnStateChange = fn
	}
}

// WithLogger sets the manager logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
