package lifecycle

import (
	"context"
	"time"

	"github.com/allbin/vcpmon/serial"
	"github.com/allbin/vcpmon/vcp"
)

// Device is an opened adapter as the manager uses it
type Device interface {
	Info() serial.PortInfo
	Driver() vcp.Driver
	SetLineCoding(lc vcp.LineCoding) error
	SetControlLineState(dtr, rts bool) error
	TxBlocking(ctx context.Context, data []byte) error
	Disconnected() <-chan struct{}
	Close() error
}

// Opener finds and opens the next device. It returns vcp.ErrNotFound when
// nothing turned up within its own timeout.
type Opener interface {
	Open(ctx context.Context) (Device, error)
}

// RegistryOpener opens devices through a driver registry
type RegistryOpener struct {
	Registry *vcp.Registry
	Host     vcp.Host
	Config   vcp.DeviceConfig
}

// Open implements Opener
func (o RegistryOpener) Open(ctx context.Context) (Device, error) {
	dev, err := o.Registry.ProbeAndOpen(ctx, o.Host, o.Config)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// Session describes the live device session
type Session struct {
	Driver     string
	Port       serial.PortInfo
	LineCoding vcp.LineCoding
	OpenedAt   time.Time
}
