package vcp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/allbin/vcpmon/hotplug"
	"github.com/allbin/vcpmon/serial"
)

// Host is the transport that tracks attached devices and hands out claims
type Host interface {
	WaitFor(ctx context.Context, match func(serial.PortInfo) bool) (serial.PortInfo, error)
	Claim(path string) (*hotplug.Claim, error)
}

// Registry is an ordered, append-only set of drivers. It also remembers
// devices that recently failed to open so other candidates get a turn.
type Registry struct {
	mu      sync.RWMutex
	drivers []Driver

	coolMu  sync.Mutex
	cooling map[string]time.Time // path -> end of cooldown
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{cooling: make(map[string]time.Time)}
}

// DefaultRegistry returns a registry holding FTDI, CP210x and CH34x, in that order
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewFTDI())
	r.Register(NewCP210x())
	r.Register(NewCH34x())
	return r
}

// Register appends d. Registering a name twice is a no-op that returns false.
func (r *Registry) Register(d Driver) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.drivers {
		if existing.Name() == d.Name() {
			return false
		}
	}
	r.drivers = append(r.drivers, d)
	return true
}

// Drivers returns the registered drivers in registration order
func (r *Registry) Drivers() []Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Driver, len(r.drivers))
	copy(out, r.drivers)
	return out
}

// Lookup returns the first driver whose Probe accepts info
func (r *Registry) Lookup(info serial.PortInfo) (Driver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.drivers {
		if d.Probe(info) {
			return d, true
		}
	}
	return nil, false
}

// ProbeAndOpen waits up to cfg.ConnectionTimeout for an attached device that
// a registered driver accepts, claims it and opens it. It returns ErrNotFound
// when nothing suitable shows up in time.
func (r *Registry) ProbeAndOpen(ctx context.Context, host Host, cfg DeviceConfig) (*Device, error) {
	cfg = cfg.withDefaults()

	waitCtx, cancel := context.WithTimeout(ctx, cfg.ConnectionTimeout)
	defer cancel()

	info, err := host.WaitFor(waitCtx, func(info serial.PortInfo) bool {
		if r.coolingDown(info.Path, time.Now()) {
			return false
		}
		_, ok := r.Lookup(info)
		return ok
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("wait for device: %w", err)
	}

	drv, ok := r.Lookup(info)
	if !ok {
		return nil, ErrNotFound
	}

	claim, err := host.Claim(info.Path)
	if err != nil {
		// Lost a race with an unplug or another user
		if errors.Is(err, hotplug.ErrGone) || errors.Is(err, hotplug.ErrClaimed) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, fmt.Errorf("claim %s: %w", info.Path, err)
	}

	if t, ok := drv.(Tuner); ok {
		if err := t.Tune(info); err != nil {
			cfg.Logger.Debug().Err(err).Str("device", info.Path).Str("driver", drv.Name()).Msg("tuning skipped")
		}
	}

	dev, err := openDevice(claim, drv, cfg)
	if err != nil {
		r.coolDown(info.Path, time.Now().Add(cfg.OpenCooldown))
		claim.Release()
		return nil, err
	}
	r.coolDown(info.Path, time.Time{})
	return dev, nil
}

// coolingDown reports whether path failed to open less than a cooldown ago
func (r *Registry) coolingDown(path string, now time.Time) bool {
	r.coolMu.Lock()
	defer r.coolMu.Unlock()

	until, ok := r.cooling[path]
	if !ok {
		return false
	}
	if !now.Before(until) {
		delete(r.cooling, path)
		return false
	}
	return true
}

// coolDown skips path until the given time; a zero time clears it
func (r *Registry) coolDown(path string, until time.Time) {
	r.coolMu.Lock()
	defer r.coolMu.Unlock()

	if until.IsZero() {
		delete(r.cooling, path)
		return
	}
	r.cooling[path] = until
}
