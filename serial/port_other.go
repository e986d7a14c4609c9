//go:build !linux

package serial

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bugst "go.bug.st/serial"
)

// signalPollInterval paces modem-status polling where no TIOCMIWAIT exists
const signalPollInterval = 50 * time.Millisecond

// port wraps go.bug.st/serial on platforms without the termios backend
type port struct {
	mu     sync.RWMutex
	p      bugst.Port
	config Config
	rts    bool
	dtr    bool
	closed bool
}

var _ Port = (*port)(nil)

func toMode(c Config) *bugst.Mode {
	mode := &bugst.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		StopBits: bugst.OneStopBit,
	}
	if c.StopBits == 2 {
		mode.StopBits = bugst.TwoStopBits
	}
	switch c.Parity {
	case ParityOdd:
		mode.Parity = bugst.OddParity
	case ParityEven:
		mode.Parity = bugst.EvenParity
	case ParityMark:
		mode.Parity = bugst.MarkParity
	case ParitySpace:
		mode.Parity = bugst.SpaceParity
	default:
		mode.Parity = bugst.NoParity
	}
	return mode
}

// Open opens a serial port with the given device path and options
func Open(device string, opts ...Option) (Port, error) {
	config, err := applyOptions(DefaultConfig(), opts)
	if err != nil {
		return nil, err
	}

	p, err := bugst.Open(device, toMode(config))
	if err != nil {
		var perr *bugst.PortError
		if errors.As(err, &perr) {
			switch perr.Code() {
			case bugst.PortNotFound:
				return nil, fmt.Errorf("failed to open %s: %w", device, ErrDeviceNotFound)
			case bugst.PortBusy:
				return nil, fmt.Errorf("failed to open %s: %w", device, ErrDeviceInUse)
			case bugst.PermissionDenied:
				return nil, fmt.Errorf("failed to open %s: %w", device, ErrPermissionDenied)
			}
		}
		return nil, fmt.Errorf("failed to open %s: %w", device, err)
	}
	if err := p.SetReadTimeout(config.ReadTimeout); err != nil {
		p.Close()
		return nil, err
	}

	pt := &port{p: p, config: config}
	if config.InitialRTS != nil {
		if err := pt.SetRTS(*config.InitialRTS); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to set initial RTS: %w", err)
		}
	}
	if config.InitialDTR != nil {
		if err := pt.SetDTR(*config.InitialDTR); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to set initial DTR: %w", err)
		}
	}
	return pt, nil
}

func (p *port) Configure(opts ...Option) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	config, err := applyOptions(p.config, opts)
	if err != nil {
		return err
	}
	if err := p.p.SetMode(toMode(config)); err != nil {
		return err
	}
	if err := p.p.SetReadTimeout(config.ReadTimeout); err != nil {
		return err
	}
	p.config = config
	return nil
}

func (p *port) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

func (p *port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	p.closed = true
	return p.p.Close()
}

func (p *port) Read(buf []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return 0, ErrPortClosed
	}
	return p.p.Read(buf)
}

func (p *port) Write(data []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return 0, ErrPortClosed
	}
	return p.p.Write(data)
}

func (p *port) WriteContext(ctx context.Context, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	type writeResult struct {
		n   int
		err error
	}
	resultCh := make(chan writeResult, 1)
	go func() {
		n, err := p.Write(data)
		resultCh <- writeResult{n, err}
	}()
	select {
	case r := <-resultCh:
		return r.n, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (p *port) Drain() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPortClosed
	}
	return p.p.Drain()
}

func (p *port) FlushInput() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPortClosed
	}
	return p.p.ResetInputBuffer()
}

func (p *port) FlushOutput() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPortClosed
	}
	return p.p.ResetOutputBuffer()
}

func (p *port) GetModemSignals() (ModemSignals, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ModemSignals{}, ErrPortClosed
	}
	bits, err := p.p.GetModemStatusBits()
	if err != nil {
		return ModemSignals{}, err
	}
	return ModemSignals{CTS: bits.CTS, DSR: bits.DSR, RI: bits.RI, DCD: bits.DCD, RTS: p.rts, DTR: p.dtr}, nil
}

func (p *port) SetDTR(state bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	if err := p.p.SetDTR(state); err != nil {
		return err
	}
	p.dtr = state
	return nil
}

func (p *port) SetRTS(state bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPortClosed
	}
	if err := p.p.SetRTS(state); err != nil {
		return err
	}
	p.rts = state
	return nil
}

// WaitForSignalChangeContext polls the modem status until a masked line changes
func (p *port) WaitForSignalChangeContext(ctx context.Context, mask SignalMask) (ModemSignals, SignalMask, error) {
	if mask == 0 {
		return ModemSignals{}, 0, ErrInvalidSignalMask
	}
	old, err := p.GetModemSignals()
	if err != nil {
		return ModemSignals{}, 0, err
	}

	ticker := time.NewTicker(signalPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ModemSignals{}, 0, ctx.Err()
		case <-ticker.C:
		}
		cur, err := p.GetModemSignals()
		if err != nil {
			return ModemSignals{}, 0, err
		}
		var changed SignalMask
		if old.CTS != cur.CTS {
			changed |= SignalCTS
		}
		if old.DSR != cur.DSR {
			changed |= SignalDSR
		}
		if old.RI != cur.RI {
			changed |= SignalRI
		}
		if old.DCD != cur.DCD {
			changed |= SignalDCD
		}
		if changed&mask != 0 {
			return cur, changed & mask, nil
		}
		old = cur
	}
}
