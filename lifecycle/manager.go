package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/allbin/vcpmon/vcp"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Resetter discards per-session ingest state
type Resetter interface {
	Reset()
}

// Stats counts lifecycle outcomes
type Stats struct {
	Sessions          uint64
	Disconnects       uint64
	OpenFailures      uint64
	ConfigureFailures uint64
}

// Manager runs the device lifecycle loop
type Manager struct {
	opener Opener
	ingest Resetter
	cfg    Config
	log    zerolog.Logger

	state atomic.Int32

	mu      sync.Mutex
	session *Session

	sessions          atomic.Uint64
	disconnects       atomic.Uint64
	openFailures      atomic.Uint64
	configureFailures atomic.Uint64
}

// NewManager returns a manager that opens devices with opener and resets
// ingest on every session boundary
func NewManager(opener Opener, ingest Resetter, opts ...Option) *Manager {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Manager{
		opener: opener,
		ingest: ingest,
		cfg:    cfg,
		log:    cfg.Logger,
	}
}

// State returns the current state
func (m *Manager) State() State { return State(m.state.Load()) }

func (m *Manager) setState(to State) {
	from := State(m.state.Swap(int32(to)))
	if from == to {
		return
	}
	m.log.Debug().Str("from", from.String()).Str("state", to.String()).Msg("state change")
	if m.cfg.OnStateChange != nil {
		m.cfg.OnStateChange(from, to)
	}
}

// Session returns the live session, if any
func (m *Manager) Session() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

func (m *Manager) setSession(s *Session) {
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
}

// Stats returns the lifecycle counters
func (m *Manager) Stats() Stats {
	return Stats{
		Sessions:          m.sessions.Load(),
		Disconnects:       m.disconnects.Load(),
		OpenFailures:      m.openFailures.Load(),
		ConfigureFailures: m.configureFailures.Load(),
	}
}

// Run loops until ctx is cancelled and returns ctx.Err(). A live session is
// torn down before Run returns.
func (m *Manager) Run(ctx context.Context) error {
	defer m.setState(StateIdle)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.setState(StateOpening)
		dev, err := m.opener.Open(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.setState(StateIdle)
			if errors.Is(err, vcp.ErrNotFound) {
				m.log.Debug().Err(err).Msg("no device, retrying")
				continue
			}
			m.openFailures.Inc()
			m.log.Error().Err(err).Msg("open failed")
			if err := m.backoff(ctx); err != nil {
				return err
			}
			continue
		}

		info := dev.Info()
		log := m.log.With().Str("device", info.Path).Str("driver", dev.Driver().Name()).Logger()

		m.setState(StateConfiguring)
		if err := m.configure(ctx, dev, log); err != nil {
			m.closeDevice(dev, log)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.setState(StateIdle)
			m.configureFailures.Inc()
			log.Error().Err(err).Msg("configure failed")
			if err := m.backoff(ctx); err != nil {
				return err
			}
			continue
		}

		m.ingest.Reset()
		m.setSession(&Session{
			Driver:     dev.Driver().Name(),
			Port:       info,
			LineCoding: m.cfg.LineCoding,
			OpenedAt:   time.Now(),
		})
		m.sessions.Inc()
		m.setState(StateActive)
		log.Info().Str("line_coding", m.cfg.LineCoding.String()).Msg("session active")

		select {
		case <-dev.Disconnected():
			m.disconnects.Inc()
			log.Info().Msg("device disconnected")
		case <-ctx.Done():
		}

		m.setState(StateDisconnecting)
		m.closeDevice(dev, log)
		m.ingest.Reset()
		m.setSession(nil)
		m.setState(StateIdle)
	}
}

// configure applies the line coding, sends the handshake and raises the
// control lines
func (m *Manager) configure(ctx context.Context, dev Device, log zerolog.Logger) error {
	if err := dev.SetLineCoding(m.cfg.LineCoding); err != nil {
		return fmt.Errorf("set line coding %s: %w", m.cfg.LineCoding, err)
	}

	if len(m.cfg.Handshake) > 0 {
		txCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
		err := dev.TxBlocking(txCtx, m.cfg.Handshake)
		cancel()
		if err != nil {
			return fmt.Errorf("handshake: %w", err)
		}
	}

	if m.cfg.AssertControlLines {
		if err := dev.SetControlLineState(true, true); err != nil {
			log.Warn().Err(err).Msg("cannot assert DTR/RTS")
		}
	}
	return nil
}

func (m *Manager) closeDevice(dev Device, log zerolog.Logger) {
	if err := dev.Close(); err != nil {
		log.Warn().Err(err).Msg("close failed")
	}
}

func (m *Manager) backoff(ctx context.Context) error {
	if m.cfg.RetryBackoff <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.cfg.RetryBackoff)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
