package vcp

import (
	"fmt"

	"github.com/allbin/vcpmon/serial"
)

// EventType identifies a device event
type EventType int

const (
	// EventError reports a transport error; the device may still be usable
	EventError EventType = iota
	// EventDisconnected reports that the device is gone
	EventDisconnected
	// EventSerialState reports a change of the modem input lines
	EventSerialState
)

func (t EventType) String() string {
	switch t {
	case EventError:
		return "error"
	case EventDisconnected:
		return "disconnected"
	case EventSerialState:
		return "serial-state"
	default:
		return "unknown"
	}
}

// Event is delivered to DeviceConfig.OnEvent
type Event struct {
	Type    EventType
	Err     error               // EventError
	Signals serial.ModemSignals // EventSerialState
	Changed serial.SignalMask   // EventSerialState
}

func (e Event) String() string {
	switch e.Type {
	case EventError:
		return fmt.Sprintf("error: %v", e.Err)
	case EventSerialState:
		return fmt.Sprintf("serial state 0x%04x", e.Signals.Bits())
	default:
		return e.Type.String()
	}
}
