package ingest

import "github.com/rs/zerolog"

// LineEnding selects how a carriage return that is not immediately followed
// by a line feed is treated
type LineEnding int

const (
	// LineEndingPermissive keeps a line pending after '\r' until the next
	// '\n', however many payload bytes arrive in between
	LineEndingPermissive LineEnding = iota
	// LineEndingStrict only accepts "\r\n" as a pair; any other byte after
	// '\r' clears the pending state and is evaluated as usual
	LineEndingStrict
)

func (le LineEnding) String() string {
	switch le {
	case LineEndingPermissive:
		return "permissive"
	case LineEndingStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// ParseLineEnding maps "permissive" or "strict" to a LineEnding
func ParseLineEnding(s string) (LineEnding, bool) {
	switch s {
	case "permissive", "":
		return LineEndingPermissive, true
	case "strict":
		return LineEndingStrict, true
	default:
		return LineEndingPermissive, false
	}
}

// Config holds the filtering and framing behaviour of a pipeline
type Config struct {
	StatusBytes   int // bytes dropped after a status marker
	LineEnding    LineEnding
	SuppressEmpty bool
	Tap           func(Message)
	Logger        zerolog.Logger
}

// Option is a functional option for Filter, Framer and Pipeline
type Option func(*Config)

// DefaultStatusBytes is the number of status bytes following the marker.
// FTDI chips prefix every USB packet with a modem status byte (the marker)
// and a line status byte.
const DefaultStatusBytes = 1

// DefaultConfig returns the permissive filter that forwards empty lines
func DefaultConfig() Config {
	return Config{
		StatusBytes: DefaultStatusBytes,
		LineEnding:  LineEndingPermissive,
		Logger:      zerolog.Nop(),
	}
}

// WithStatusBytes sets how many bytes after a status marker are dropped.
// Negative values are treated as zero.
func WithStatusBytes(n int) Option {
	return func(c *Config) {
		if n < 0 {
			n = 0
		}
		c.StatusBytes = n
	}
}

// WithLineEnding sets the carriage return handling
func WithLineEnding(le LineEnding) Option {
	return func(c *Config) {
		c.LineEnding = le
	}
}

// WithSuppressEmpty drops zero-length lines instead of forwarding them
func WithSuppressEmpty() Option {
	return func(c *Config) {
		c.SuppressEmpty = true
	}
}

// WithTap registers a hook that sees every sealed message before it is queued.
// The hook runs on the producer side and must not block.
func WithTap(fn func(Message)) Option {
	return func(c *Config) {
		c.Tap = fn
	}
}

// WithLogger sets the logger used for queue overflow warnings
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func buildConfig(opts []Option) Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
