package vcp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/allbin/vcpmon/hotplug"
	"github.com/allbin/vcpmon/serial"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Defaults for DeviceConfig
const (
	DefaultConnectionTimeout  = 5 * time.Second
	DefaultInBufferSize       = 256
	DefaultOpenCooldown       = 10 * time.Second
	DefaultSignalPollInterval = 250 * time.Millisecond
)

// readTimeout bounds each read so the reader notices Close promptly
const readTimeout = 100 * time.Millisecond

// DeviceConfig controls how a device is found and how it reports data
type DeviceConfig struct {
	ConnectionTimeout  time.Duration
	InBufferSize       int
	OpenCooldown       time.Duration // how long a device that failed to open is passed over
	WatchSignals       bool          // report modem line changes as EventSerialState
	SignalPollInterval time.Duration // how often the modem lines are sampled

	// OnData receives every chunk read from the device. It runs on the
	// reader goroutine, must not block and must not keep data. The return
	// value reports whether the data was accepted.
	OnData func(data []byte) bool
	// OnEvent receives device events. It runs on device goroutines.
	OnEvent func(Event)

	Logger zerolog.Logger
}

// DefaultDeviceConfig returns a 5s connection timeout and a 256 byte read buffer
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		ConnectionTimeout:  DefaultConnectionTimeout,
		InBufferSize:       DefaultInBufferSize,
		OpenCooldown:       DefaultOpenCooldown,
		WatchSignals:       true,
		SignalPollInterval: DefaultSignalPollInterval,
		Logger:             zerolog.Nop(),
	}
}

func (c DeviceConfig) withDefaults() DeviceConfig {
	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = DefaultConnectionTimeout
	}
	if c.InBufferSize <= 0 {
		c.InBufferSize = DefaultInBufferSize
	}
	if c.OpenCooldown <= 0 {
		c.OpenCooldown = DefaultOpenCooldown
	}
	if c.SignalPollInterval <= 0 {
		c.SignalPollInterval = DefaultSignalPollInterval
	}
	return c
}

// DeviceStats counts device traffic
type DeviceStats struct {
	RxBytes  uint64
	TxBytes  uint64
	Rejected uint64 // chunks OnData did not accept
}

// Device is an open adapter. Its reader goroutine feeds OnData until the
// device is closed or disconnected.
type Device struct {
	port   serial.Port
	claim  *hotplug.Claim
	driver Driver
	info   serial.PortInfo
	cfg    DeviceConfig
	log    zerolog.Logger

	mu sync.Mutex
	lc LineCoding

	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	disconnected chan struct{}
	discOnce     sync.Once
	closeOnce    sync.Once
	closeErr     error
	closed       atomic.Bool

	rx       atomic.Uint64
	tx       atomic.Uint64
	rejected atomic.Uint64
}

func openDevice(claim *hotplug.Claim, drv Driver, cfg DeviceConfig) (*Device, error) {
	info := claim.Info()
	log := cfg.Logger.With().Str("device", info.Path).Str("driver", drv.Name()).Logger()

	port, err := serial.Open(info.Path, serial.WithReadTimeout(readTimeout))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", info.Path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Device{
		port:         port,
		claim:        claim,
		driver:       drv,
		info:         info,
		cfg:          cfg,
		log:          log,
		lc:           lineCodingOf(port.Config()),
		ctx:          ctx,
		cancel:       cancel,
		disconnected: make(chan struct{}),
	}

	d.wg.Add(2)
	go d.readLoop()
	go d.watchRemoval()
	if cfg.WatchSignals {
		d.wg.Add(1)
		go d.watchSignals()
	}

	log.Info().Msg("device opened")
	return d, nil
}

func lineCodingOf(c serial.Config) LineCoding {
	return LineCoding{BaudRate: c.BaudRate, DataBits: c.DataBits, Parity: c.Parity, StopBits: c.StopBits}
}

func (d *Device) emit(ev Event) {
	if d.cfg.OnEvent != nil {
		d.cfg.OnEvent(ev)
	}
}

// markDisconnected closes the disconnect channel and reports it once
func (d *Device) markDisconnected() {
	d.discOnce.Do(func() {
		close(d.disconnected)
		d.emit(Event{Type: EventDisconnected})
	})
}

func (d *Device) readLoop() {
	defer d.wg.Done()

	buf := make([]byte, d.cfg.InBufferSize)
	for {
		if d.ctx.Err() != nil {
			return
		}

		n, err := d.port.Read(buf)
		if n > 0 {
			d.rx.Add(uint64(n))
			if d.cfg.OnData != nil && !d.cfg.OnData(buf[:n]) {
				d.rejected.Inc()
			}
		}
		if err != nil {
			if d.ctx.Err() != nil || errors.Is(err, serial.ErrPortClosed) {
				return
			}
			if errors.Is(err, serial.ErrHangup) {
				d.log.Info().Msg("device hung up")
			} else {
				d.log.Debug().Err(err).Msg("read failed")
			}
			d.emit(Event{Type: EventError, Err: err})
			d.markDisconnected()
			return
		}
	}
}

func (d *Device) watchRemoval() {
	defer d.wg.Done()

	select {
	case <-d.claim.Removed():
		d.markDisconnected()
	case <-d.ctx.Done():
	}
}

func (d *Device) watchSignals() {
	defer d.wg.Done()

	err := pollSignals(d.ctx, d.port, d.cfg.SignalPollInterval, func(signals serial.ModemSignals, changed serial.SignalMask) {
		d.emit(Event{Type: EventSerialState, Signals: signals, Changed: changed})
	})
	if err != nil && d.ctx.Err() == nil {
		d.log.Debug().Err(err).Msg("modem line monitoring unavailable")
	}
}

// signalReader is the part of a port the line watcher samples
type signalReader interface {
	GetModemSignals() (serial.ModemSignals, error)
}

// pollSignals samples the modem input lines every interval and reports each
// change. It returns when ctx is done or the lines cannot be read.
func pollSignals(ctx context.Context, src signalReader, interval time.Duration, report func(serial.ModemSignals, serial.SignalMask)) error {
	last, err := src.GetModemSignals()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		cur, err := src.GetModemSignals()
		if err != nil {
			return err
		}
		if changed := changedSignals(last, cur); changed != 0 {
			report(cur, changed)
		}
		last = cur
	}
}

// changedSignals compares the input lines of two samples
func changedSignals(prev, cur serial.ModemSignals) serial.SignalMask {
	var mask serial.SignalMask
	if prev.CTS != cur.CTS {
		mask |= serial.SignalCTS
	}
	if prev.DSR != cur.DSR {
		mask |= serial.SignalDSR
	}
	if prev.RI != cur.RI {
		mask |= serial.SignalRI
	}
	if prev.DCD != cur.DCD {
		mask |= serial.SignalDCD
	}
	return mask
}

// Disconnected is closed when the device goes away
func (d *Device) Disconnected() <-chan struct{} { return d.disconnected }

// Info returns the device's port information
func (d *Device) Info() serial.PortInfo { return d.info }

// Driver returns the driver that matched the device
func (d *Device) Driver() Driver { return d.driver }

// LineCoding returns the line coding currently applied
func (d *Device) LineCoding() LineCoding {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lc
}

// SetLineCoding applies lc through the device's driver
func (d *Device) SetLineCoding(lc LineCoding) error {
	if d.closed.Load() {
		return ErrDeviceClosed
	}
	if err := d.driver.Configure(d.port, lc); err != nil {
		return err
	}
	// Bytes queued at the old line coding are noise
	if err := d.port.FlushInput(); err != nil {
		d.log.Debug().Err(err).Msg("input flush failed")
	}

	d.mu.Lock()
	d.lc = lc
	d.mu.Unlock()
	return nil
}

// SetControlLineState drives the DTR and RTS outputs
func (d *Device) SetControlLineState(dtr, rts bool) error {
	if d.closed.Load() {
		return ErrDeviceClosed
	}
	if err := d.port.SetDTR(dtr); err != nil {
		return fmt.Errorf("set DTR: %w", err)
	}
	if err := d.port.SetRTS(rts); err != nil {
		return fmt.Errorf("set RTS: %w", err)
	}
	return nil
}

// TxBlocking writes all of data and waits until it has been transmitted
func (d *Device) TxBlocking(ctx context.Context, data []byte) error {
	if d.closed.Load() {
		return ErrDeviceClosed
	}
	for len(data) > 0 {
		n, err := d.port.WriteContext(ctx, data)
		d.tx.Add(uint64(n))
		if err != nil {
			return fmt.Errorf("transmit: %w", err)
		}
		data = data[n:]
	}
	if err := d.port.Drain(); err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	return nil
}

// Stats returns the device counters
func (d *Device) Stats() DeviceStats {
	return DeviceStats{
		RxBytes:  d.rx.Load(),
		TxBytes:  d.tx.Load(),
		Rejected: d.rejected.Load(),
	}
}

// Close stops the reader, closes the port and releases the claim. It is safe
// to call more than once.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		d.cancel()
		d.wg.Wait()

		_ = d.port.FlushOutput()
		if err := d.port.Close(); err != nil && !errors.Is(err, serial.ErrPortClosed) {
			d.closeErr = fmt.Errorf("close %s: %w", d.info.Path, err)
		}
		d.claim.Release()
		d.log.Info().Msg("device closed")
	})
	return d.closeErr
}
