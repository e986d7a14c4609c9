package hotplug

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/allbin/vcpmon/serial"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Flags report the device table after an event was handled
type Flags uint8

const (
	// FlagNoClients is set when no device is claimed
	FlagNoClients Flags = 1 << iota
	// FlagAllFree is set when the device table is empty
	FlagAllFree
)

// Has reports whether all bits of f2 are set in f
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

func (f Flags) String() string {
	var parts []string
	if f.Has(FlagNoClients) {
		parts = append(parts, "no-clients")
	}
	if f.Has(FlagAllFree) {
		parts = append(parts, "all-free")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

type entry struct {
	info     serial.PortInfo
	attached bool
	claim    *Claim
}

// Monitor keeps the table of attached serial devices and their claims
type Monitor struct {
	cfg     Config
	log     zerolog.Logger
	watcher *fsnotify.Watcher
	ticker  *time.Ticker

	mu      sync.Mutex
	devices map[string]*entry
	changed chan struct{} // closed and replaced whenever the table changes
	closed  bool
}

// NewMonitor starts watching the device directory and performs an initial scan.
// If the directory cannot be watched the monitor falls back to periodic rescans.
func NewMonitor(opts ...Option) (*Monitor, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Scanner == nil {
		return nil, fmt.Errorf("hotplug: scanner is required")
	}

	m := &Monitor{
		cfg:     cfg,
		log:     cfg.Logger,
		devices: make(map[string]*entry),
		changed: make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(cfg.DevDir); err != nil {
		m.log.Warn().Err(err).Str("dir", cfg.DevDir).Msg("cannot watch device directory, polling instead")
		if cfg.RescanInterval <= 0 {
			cfg.RescanInterval = fallbackRescanInterval
			m.cfg.RescanInterval = cfg.RescanInterval
		}
	}
	m.watcher = watcher

	if cfg.RescanInterval > 0 {
		m.ticker = time.NewTicker(cfg.RescanInterval)
	}

	if err := m.Rescan(); err != nil {
		m.log.Warn().Err(err).Msg("initial device scan failed")
	}
	return m, nil
}

// HandleEvents waits for one watcher event, applies it to the device table and
// reports the resulting flags. Only events for tty nodes trigger a rescan.
func (m *Monitor) HandleEvents(ctx context.Context) (Flags, error) {
	var tick <-chan time.Time
	if m.ticker != nil {
		tick = m.ticker.C
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()

	case ev, ok := <-m.watcher.Events:
		if !ok {
			return 0, ErrClosed
		}
		if !strings.HasPrefix(filepath.Base(ev.Name), "tty") {
			return m.Flags(), nil
		}
		if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
			return m.Flags(), nil
		}
		m.log.Debug().Str("node", ev.Name).Str("op", ev.Op.String()).Msg("device node event")
		if err := m.Rescan(); err != nil {
			return m.Flags(), fmt.Errorf("rescan: %w", err)
		}
		return m.Flags(), nil

	case err, ok := <-m.watcher.Errors:
		if !ok {
			return 0, ErrClosed
		}
		return m.Flags(), err

	case <-tick:
		if err := m.Rescan(); err != nil {
			return m.Flags(), fmt.Errorf("rescan: %w", err)
		}
		return m.Flags(), nil
	}
}

// Rescan lists the attached devices and updates the table. Devices that went
// away are marked detached and their claims notified.
func (m *Monitor) Rescan() error {
	infos, err := m.cfg.Scanner()
	if err != nil {
		return err
	}

	seen := make(map[string]serial.PortInfo, len(infos))
	for _, info := range infos {
		seen[info.Path] = info
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	dirty := false
	for path, info := range seen {
		e, ok := m.devices[path]
		if ok && e.attached {
			continue
		}
		// A detached entry under the same path is a new device
		m.devices[path] = &entry{info: info, attached: true}
		dirty = true
		m.log.Info().
			Str("device", path).
			Str("vid", info.VendorID).
			Str("pid", info.ProductID).
			Str("serial", info.SerialNumber).
			Msg("device attached")
	}

	for path, e := range m.devices {
		if _, ok := seen[path]; ok || !e.attached {
			continue
		}
		e.attached = false
		dirty = true
		m.log.Info().Str("device", path).Bool("claimed", e.claim != nil).Msg("device removed")
		if e.claim != nil {
			e.claim.markRemoved()
		}
	}

	if dirty {
		m.notifyLocked()
	}
	return nil
}

// notifyLocked wakes every WaitFor. m.mu must be held.
func (m *Monitor) notifyLocked() {
	close(m.changed)
	m.changed = make(chan struct{})
}

// Flags reports the claim and table state
func (m *Monitor) Flags() Flags {
	m.mu.Lock()
	defer m.mu.Unlock()

	var f Flags
	claimed := false
	for _, e := range m.devices {
		if e.claim != nil {
			claimed = true
			break
		}
	}
	if !claimed {
		f |= FlagNoClients
	}
	if len(m.devices) == 0 {
		f |= FlagAllFree
	}
	return f
}

// FreeAll drops detached devices that nobody holds a claim on and returns
// how many were freed
func (m *Monitor) FreeAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for path, e := range m.devices {
		if !e.attached && e.claim == nil {
			delete(m.devices, path)
			n++
		}
	}
	return n
}

// Devices returns the attached devices sorted by path
func (m *Monitor) Devices() []serial.PortInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []serial.PortInfo
	for _, e := range m.devices {
		if e.attached {
			out = append(out, e.info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// WaitFor blocks until an attached, unclaimed device satisfies match. Devices
// are offered in path order.
func (m *Monitor) WaitFor(ctx context.Context, match func(serial.PortInfo) bool) (serial.PortInfo, error) {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return serial.PortInfo{}, ErrClosed
		}
		if info, ok := m.findLocked(match); ok {
			m.mu.Unlock()
			return info, nil
		}
		changed := m.changed
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return serial.PortInfo{}, ctx.Err()
		case <-changed:
		}
	}
}

func (m *Monitor) findLocked(match func(serial.PortInfo) bool) (serial.PortInfo, bool) {
	paths := make([]string, 0, len(m.devices))
	for path, e := range m.devices {
		if e.attached && e.claim == nil {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		if info := m.devices[path].info; match(info) {
			return info, true
		}
	}
	return serial.PortInfo{}, false
}

// Claim takes exclusive use of the device at path
func (m *Monitor) Claim(path string) (*Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	e, ok := m.devices[path]
	if !ok || !e.attached {
		return nil, fmt.Errorf("%s: %w", path, ErrGone)
	}
	if e.claim != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrClaimed)
	}

	c := &Claim{m: m, e: e, removed: make(chan struct{})}
	e.claim = c
	return c, nil
}

func (m *Monitor) release(c *Claim) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.e.claim == c {
		c.e.claim = nil
	}
	if !m.closed {
		m.notifyLocked()
	}
}

// Close stops watching. Outstanding claims stay valid until released.
func (m *Monitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.notifyLocked()
	m.mu.Unlock()

	if m.ticker != nil {
		m.ticker.Stop()
	}
	return m.watcher.Close()
}

// Claim is exclusive use of one attached device
type Claim struct {
	m           *Monitor
	e           *entry
	removed     chan struct{}
	removedOnce sync.Once
	releaseOnce sync.Once
}

// Info returns the claimed device
func (c *Claim) Info() serial.PortInfo { return c.e.info }

// Path returns the device node of the claimed device
func (c *Claim) Path() string { return c.e.info.Path }

// Removed is closed when the device is detached while claimed
func (c *Claim) Removed() <-chan struct{} { return c.removed }

// Release gives the device back. It is safe to call more than once.
func (c *Claim) Release() {
	c.releaseOnce.Do(func() { c.m.release(c) })
}

func (c *Claim) markRemoved() {
	c.removedOnce.Do(func() { close(c.removed) })
}
