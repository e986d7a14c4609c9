package hotplug

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/allbin/vcpmon/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBus is a scanner whose device list the test controls
type fakeBus struct {
	mu      sync.Mutex
	devices map[string]serial.PortInfo
	err     error
}

func newFakeBus() *fakeBus {
	return &fakeBus{devices: make(map[string]serial.PortInfo)}
}

func (b *fakeBus) plug(path, vid, pid string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices[path] = serial.PortInfo{Name: filepath.Base(path), Path: path, VendorID: vid, ProductID: pid}
}

func (b *fakeBus) unplug(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.devices, path)
}

func (b *fakeBus) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

func (b *fakeBus) scan() ([]serial.PortInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	out := make([]serial.PortInfo, 0, len(b.devices))
	for _, info := range b.devices {
		out = append(out, info)
	}
	return out, nil
}

func newTestMonitor(t *testing.T, bus *fakeBus) *Monitor {
	t.Helper()

	m, err := NewMonitor(WithDevDir(t.TempDir()), WithScanner(bus.scan))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func anyDevice(serial.PortInfo) bool { return true }

func TestMonitorInitialScan(t *testing.T) {
	bus := newFakeBus()
	bus.plug("/dev/ttyUSB1", "10c4", "ea60")
	bus.plug("/dev/ttyUSB0", "0403", "6001")

	m := newTestMonitor(t, bus)

	devices := m.Devices()
	require.Len(t, devices, 2)
	assert.Equal(t, "/dev/ttyUSB0", devices[0].Path)
	assert.Equal(t, "/dev/ttyUSB1", devices[1].Path)
}

func TestMonitorFlags(t *testing.T) {
	bus := newFakeBus()
	m := newTestMonitor(t, bus)
	assert.Equal(t, FlagNoClients|FlagAllFree, m.Flags())

	bus.plug("/dev/ttyUSB0", "0403", "6001")
	require.NoError(t, m.Rescan())
	assert.Equal(t, FlagNoClients, m.Flags())

	c, err := m.Claim("/dev/ttyUSB0")
	require.NoError(t, err)
	assert.Equal(t, Flags(0), m.Flags())

	c.Release()
	assert.Equal(t, FlagNoClients, m.Flags())
}

func TestFlagsString(t *testing.T) {
	assert.Equal(t, "none", Flags(0).String())
	assert.Equal(t, "no-clients|all-free", (FlagNoClients | FlagAllFree).String())
}

func TestMonitorClaim(t *testing.T) {
	bus := newFakeBus()
	bus.plug("/dev/ttyUSB0", "0403", "6001")
	m := newTestMonitor(t, bus)

	c, err := m.Claim("/dev/ttyUSB0")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", c.Path())
	assert.Equal(t, "0403", c.Info().VendorID)

	_, err = m.Claim("/dev/ttyUSB0")
	assert.ErrorIs(t, err, ErrClaimed)

	_, err = m.Claim("/dev/ttyUSB9")
	assert.ErrorIs(t, err, ErrGone)

	c.Release()
	c.Release()

	c2, err := m.Claim("/dev/ttyUSB0")
	require.NoError(t, err)
	c2.Release()
}

func TestMonitorRemovalNotifiesClaim(t *testing.T) {
	bus := newFakeBus()
	bus.plug("/dev/ttyUSB0", "0403", "6001")
	m := newTestMonitor(t, bus)

	c, err := m.Claim("/dev/ttyUSB0")
	require.NoError(t, err)

	select {
	case <-c.Removed():
		t.Fatal("claim reported removed while attached")
	default:
	}

	bus.unplug("/dev/ttyUSB0")
	require.NoError(t, m.Rescan())

	select {
	case <-c.Removed():
	case <-time.After(time.Second):
		t.Fatal("claim not notified of removal")
	}

	// Detached but claimed devices are kept until released
	assert.Zero(t, m.FreeAll())
	assert.Empty(t, m.Devices())

	c.Release()
	assert.Equal(t, 1, m.FreeAll())
	assert.Equal(t, FlagNoClients|FlagAllFree, m.Flags())
}

func TestMonitorReattachUnderSamePath(t *testing.T) {
	bus := newFakeBus()
	bus.plug("/dev/ttyUSB0", "0403", "6001")
	m := newTestMonitor(t, bus)

	old, err := m.Claim("/dev/ttyUSB0")
	require.NoError(t, err)

	bus.unplug("/dev/ttyUSB0")
	require.NoError(t, m.Rescan())
	bus.plug("/dev/ttyUSB0", "0403", "6001")
	require.NoError(t, m.Rescan())

	// The new device is claimable even though the old claim is still held
	fresh, err := m.Claim("/dev/ttyUSB0")
	require.NoError(t, err)

	old.Release()
	_, err = m.Claim("/dev/ttyUSB0")
	assert.ErrorIs(t, err, ErrClaimed, "releasing the stale claim must not free the new one")
	fresh.Release()
}

func TestMonitorWaitFor(t *testing.T) {
	bus := newFakeBus()
	m := newTestMonitor(t, bus)

	ftdi := func(info serial.PortInfo) bool { return info.VendorID == "0403" }

	done := make(chan serial.PortInfo, 1)
	go func() {
		info, err := m.WaitFor(context.Background(), ftdi)
		if err == nil {
			done <- info
		}
	}()

	bus.plug("/dev/ttyUSB0", "10c4", "ea60")
	require.NoError(t, m.Rescan())
	select {
	case <-done:
		t.Fatal("WaitFor matched the wrong vendor")
	case <-time.After(50 * time.Millisecond):
	}

	bus.plug("/dev/ttyUSB1", "0403", "6001")
	require.NoError(t, m.Rescan())
	select {
	case info := <-done:
		assert.Equal(t, "/dev/ttyUSB1", info.Path)
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not wake on attach")
	}
}

func TestMonitorWaitForSkipsClaimed(t *testing.T) {
	bus := newFakeBus()
	bus.plug("/dev/ttyUSB0", "0403", "6001")
	m := newTestMonitor(t, bus)

	c, err := m.Claim("/dev/ttyUSB0")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = m.WaitFor(ctx, anyDevice)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	c.Release()
	info, err := m.WaitFor(context.Background(), anyDevice)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", info.Path)
}

func TestMonitorWaitForAfterClose(t *testing.T) {
	m := newTestMonitor(t, newFakeBus())
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.WaitFor(context.Background(), anyDevice)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.Claim("/dev/ttyUSB0")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMonitorHandleEventsOnNodeCreate(t *testing.T) {
	dir := t.TempDir()
	bus := newFakeBus()
	m, err := NewMonitor(WithDevDir(dir), WithScanner(bus.scan))
	require.NoError(t, err)
	defer m.Close()

	bus.plug(filepath.Join(dir, "ttyUSB0"), "0403", "6001")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ttyUSB0"), nil, 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for len(m.Devices()) == 0 {
		_, err := m.HandleEvents(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, filepath.Join(dir, "ttyUSB0"), m.Devices()[0].Path)
}

func TestMonitorHandleEventsIgnoresOtherNodes(t *testing.T) {
	dir := t.TempDir()
	var scans int
	var mu sync.Mutex
	scanner := func() ([]serial.PortInfo, error) {
		mu.Lock()
		defer mu.Unlock()
		scans++
		return nil, nil
	}
	m, err := NewMonitor(WithDevDir(dir), WithScanner(scanner))
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "null"), nil, 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = m.HandleEvents(ctx)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, scans, "only the initial scan should have run")
}

func TestMonitorHandleEventsCancelled(t *testing.T) {
	m := newTestMonitor(t, newFakeBus())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.HandleEvents(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMonitorRescanError(t *testing.T) {
	bus := newFakeBus()
	bus.plug("/dev/ttyUSB0", "0403", "6001")
	m := newTestMonitor(t, bus)

	boom := errors.New("sysfs unavailable")
	bus.fail(boom)
	assert.ErrorIs(t, m.Rescan(), boom)
	assert.Len(t, m.Devices(), 1, "a failed scan leaves the table alone")
}

func TestMonitorPollsWithoutDevDir(t *testing.T) {
	bus := newFakeBus()
	m, err := NewMonitor(
		WithDevDir(filepath.Join(t.TempDir(), "missing")),
		WithScanner(bus.scan),
		WithRescanInterval(10*time.Millisecond),
	)
	require.NoError(t, err)
	defer m.Close()

	bus.plug("/dev/ttyUSB0", "0403", "6001")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for len(m.Devices()) == 0 {
		_, err := m.HandleEvents(ctx)
		require.NoError(t, err)
	}
}
