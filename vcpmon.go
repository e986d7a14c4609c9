package vcpmon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allbin/vcpmon/hotplug"
	"github.com/allbin/vcpmon/ingest"
	"github.com/allbin/vcpmon/lifecycle"
	"github.com/allbin/vcpmon/serial"
	"github.com/allbin/vcpmon/vcp"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// installed guards the once-per-process host transport
var installed atomic.Bool

// Stats aggregates the counters of every component
type Stats struct {
	Queue     ingest.QueueStats
	Framer    ingest.FramerStats
	Lifecycle lifecycle.Stats
	Pump      hotplug.PumpStats
}

// Core is a running ingestion core
type Core struct {
	cfg      Config
	log      zerolog.Logger
	monitor  *hotplug.Monitor
	registry *vcp.Registry
	queue    *ingest.Queue
	pipeline *ingest.Pipeline
	manager  *lifecycle.Manager
	pump     *hotplug.Pump

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Start installs the device monitor, registers the drivers and starts the
// event pump and lifecycle loop. It does not wait for a device. Cancelling
// ctx stops the core, as does Stop.
func Start(ctx context.Context, opts ...Option) (*Core, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if !installed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInstalled
	}

	c, err := newCore(cfg)
	if err != nil {
		installed.Store(false)
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return c.pump.Run(gctx) })
	g.Go(func() error { return c.manager.Run(gctx) })

	go func() {
		err := g.Wait()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		c.err = err
		if err != nil {
			c.log.Error().Err(err).Msg("core stopped")
		}

		if cerr := c.monitor.Close(); cerr != nil {
			c.log.Warn().Err(cerr).Msg("closing device monitor")
		}
		c.queue.Close()
		installed.Store(false)
		close(c.done)
	}()

	c.log.Info().
		Str("line_coding", cfg.LineCoding.String()).
		Int("queue_depth", cfg.QueueDepth).
		Int("drivers", len(c.registry.Drivers())).
		Msg("core started")
	return c, nil
}

func newCore(cfg Config) (*Core, error) {
	log := cfg.Logger

	monitorOpts := []hotplug.Option{
		hotplug.WithDevDir(cfg.DevDir),
		hotplug.WithRescanInterval(cfg.RescanInterval),
		hotplug.WithLogger(log.With().Str("component", "hotplug").Logger()),
	}
	if cfg.Scanner != nil {
		monitorOpts = append(monitorOpts, hotplug.WithScanner(cfg.Scanner))
	}
	monitor, err := hotplug.NewMonitor(monitorOpts...)
	if err != nil {
		return nil, fmt.Errorf("install device monitor: %w", err)
	}

	registry := vcp.DefaultRegistry()
	for _, d := range cfg.Drivers {
		if !registry.Register(d) {
			log.Warn().Str("driver", d.Name()).Msg("driver already registered")
		}
	}

	queue := ingest.NewQueue(cfg.QueueDepth)
	ingestOpts := []ingest.Option{
		ingest.WithStatusBytes(cfg.StatusBytes),
		ingest.WithLineEnding(cfg.LineEnding),
		ingest.WithLogger(log.With().Str("component", "ingest").Logger()),
	}
	if cfg.SuppressEmpty {
		ingestOpts = append(ingestOpts, ingest.WithSuppressEmpty())
	}
	if cfg.Tap != nil {
		ingestOpts = append(ingestOpts, ingest.WithTap(cfg.Tap))
	}
	pipeline := ingest.NewPipeline(queue, ingestOpts...)

	c := &Core{
		cfg:      cfg,
		log:      log,
		monitor:  monitor,
		registry: registry,
		queue:    queue,
		pipeline: pipeline,
		pump:     hotplug.NewPump(monitor, log.With().Str("component", "pump").Logger()),
		done:     make(chan struct{}),
	}

	devCfg := vcp.DefaultDeviceConfig()
	devCfg.ConnectionTimeout = cfg.ConnectionTimeout
	devCfg.OnData = pipeline.Feed
	devCfg.OnEvent = c.onDeviceEvent
	devCfg.Logger = log.With().Str("component", "vcp").Logger()

	lifecycleOpts := []lifecycle.Option{
		lifecycle.WithLineCoding(cfg.LineCoding),
		lifecycle.WithHandshake(cfg.Handshake),
		lifecycle.WithControlLines(cfg.ControlLines),
		lifecycle.WithRetryBackoff(cfg.RetryBackoff),
		lifecycle.WithLogger(log.With().Str("component", "lifecycle").Logger()),
	}
	if cfg.StateHook != nil {
		lifecycleOpts = append(lifecycleOpts, lifecycle.WithStateHook(cfg.StateHook))
	}
	c.manager = lifecycle.NewManager(
		lifecycle.RegistryOpener{Registry: registry, Host: monitor, Config: devCfg},
		pipeline,
		lifecycleOpts...,
	)
	return c, nil
}

// onDeviceEvent logs device events; only disconnects affect the lifecycle,
// and those arrive through the device's Disconnected channel
func (c *Core) onDeviceEvent(ev vcp.Event) {
	switch ev.Type {
	case vcp.EventError:
		c.log.Error().Err(ev.Err).Msg("device error")
	case vcp.EventSerialState:
		c.log.Info().Str("state", fmt.Sprintf("0x%04x", ev.Signals.Bits())).Msg("serial state notification")
	case vcp.EventDisconnected:
		c.log.Debug().Msg("device disconnect event")
	}
}

// Receive waits up to timeout for the next line
func (c *Core) Receive(timeout time.Duration) (ingest.Message, error) {
	return c.queue.Receive(timeout)
}

// ReceiveContext waits for the next line until ctx is done
func (c *Core) ReceiveContext(ctx context.Context) (ingest.Message, error) {
	return c.queue.ReceiveContext(ctx)
}

// State returns the lifecycle state
func (c *Core) State() lifecycle.State { return c.manager.State() }

// Session returns the live device session, if any
func (c *Core) Session() (lifecycle.Session, bool) { return c.manager.Session() }

// Devices returns the attached serial devices
func (c *Core) Devices() []serial.PortInfo { return c.monitor.Devices() }

// Registry returns the driver registry
func (c *Core) Registry() *vcp.Registry { return c.registry }

// Stats returns the component counters
func (c *Core) Stats() Stats {
	return Stats{
		Queue:     c.queue.Stats(),
		Framer:    c.pipeline.Stats(),
		Lifecycle: c.manager.Stats(),
		Pump:      c.pump.Stats(),
	}
}

// Done is closed once the core has stopped
func (c *Core) Done() <-chan struct{} { return c.done }

// Wait blocks until the core stops and returns the error that stopped it,
// nil after a normal shutdown
func (c *Core) Wait() error {
	<-c.done
	return c.err
}

// Stop shuts the core down and waits for it
func (c *Core) Stop() error {
	c.cancel()
	return c.Wait()
}
