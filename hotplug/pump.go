package hotplug

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// EventSource is the blocking event-service primitive a Pump drives
type EventSource interface {
	HandleEvents(ctx context.Context) (Flags, error)
	FreeAll() int
}

// errorBackoff keeps a failing event source from spinning
const errorBackoff = 100 * time.Millisecond

// PumpStats counts what the pump has seen
type PumpStats struct {
	Events uint64
	Errors uint64
	Freed  uint64
}

// Pump services an EventSource until its context is cancelled
type Pump struct {
	src EventSource
	log zerolog.Logger

	events atomic.Uint64
	errs   atomic.Uint64
	freed  atomic.Uint64
}

// NewPump returns a pump for src
func NewPump(src EventSource, log zerolog.Logger) *Pump {
	return &Pump{src: src, log: log}
}

// Run handles events until ctx is done or the source is closed. Source errors
// are logged and the loop continues. When no device is claimed, detached
// devices are freed.
func (p *Pump) Run(ctx context.Context) error {
	p.log.Debug().Msg("event pump started")
	defer p.log.Debug().Msg("event pump stopped")

	allFree := false
	for {
		flags, err := p.src.HandleEvents(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, ErrClosed) {
				return err
			}
			p.errs.Inc()
			p.log.Warn().Err(err).Msg("device event error")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errorBackoff):
			}
			continue
		}
		p.events.Inc()

		if flags.Has(FlagNoClients) {
			if n := p.src.FreeAll(); n > 0 {
				p.freed.Add(uint64(n))
				p.log.Debug().Int("count", n).Msg("freed detached devices")
			}
		}

		if flags.Has(FlagAllFree) != allFree {
			allFree = flags.Has(FlagAllFree)
			if allFree {
				p.log.Info().Msg("all devices freed")
			}
		}
	}
}

// Stats returns the pump counters
func (p *Pump) Stats() PumpStats {
	return PumpStats{
		Events: p.events.Load(),
		Errors: p.errs.Load(),
		Freed:  p.freed.Load(),
	}
}
