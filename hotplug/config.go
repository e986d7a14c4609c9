package hotplug

import (
	"time"

	"github.com/allbin/vcpmon/serial"
	"github.com/rs/zerolog"
)

// Scanner lists the serial devices currently attached
type Scanner func() ([]serial.PortInfo, error)

// Config holds monitor settings
type Config struct {
	DevDir         string
	Scanner        Scanner
	RescanInterval time.Duration // 0 relies on watcher events alone
	Logger         zerolog.Logger
}

// Option is a functional option for NewMonitor
type Option func(*Config)

// fallbackRescanInterval is used when the device directory cannot be watched
const fallbackRescanInterval = 2 * time.Second

// DefaultConfig watches /dev and lists USB serial ports from sysfs
func DefaultConfig() Config {
	return Config{
		DevDir:  "/dev",
		Scanner: serial.ListUSBPorts,
		Logger:  zerolog.Nop(),
	}
}

// WithDevDir sets the directory watched for device nodes
func WithDevDir(dir string) Option {
	return func(c *Config) {
		c.DevDir = dir
	}
}

// WithScanner replaces the device scanner
func WithScanner(s Scanner) Option {
	return func(c *Config) {
		c.Scanner = s
	}
}

// WithRescanInterval also rescans periodically, for hosts where the device
// directory does not deliver events
func WithRescanInterval(d time.Duration) Option {
	return func(c *Config) {
		c.RescanInterval = d
	}
}

// WithLogger sets the monitor logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
