package serial

import (
	"context"
	"sort"
)

// Port represents a serial port connection interface
type Port interface {
	Close() error
	Read(buf []byte) (int, error)
	Write(data []byte) (int, error)
	WriteContext(ctx context.Context, data []byte) (int, error)

	// Configure re-applies line coding on an open port
	Configure(opts ...Option) error
	Config() Config

	Drain() error
	FlushInput() error
	FlushOutput() error

	// Modem signal control and monitoring
	GetModemSignals() (ModemSignals, error)
	SetDTR(state bool) error
	SetRTS(state bool) error
	WaitForSignalChangeContext(ctx context.Context, mask SignalMask) (ModemSignals, SignalMask, error)
}

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlRTSCTS
)

func (fc FlowControl) String() string {
	switch fc {
	case FlowControlNone:
		return "none"
	case FlowControlRTSCTS:
		return "rtscts"
	default:
		return "unknown"
	}
}

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// String returns the single-letter notation used in "8N1"
func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "N"
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	case ParityMark:
		return "M"
	case ParitySpace:
		return "S"
	default:
		return "?"
	}
}

// ModemSignals represents modem control signal states
type ModemSignals struct {
	CTS bool // Clear To Send
	DSR bool // Data Set Ready
	RI  bool // Ring Indicator
	DCD bool // Data Carrier Detect
	RTS bool // Request To Send
	DTR bool // Data Terminal Ready
}

// Bits packs the signals into a CDC-ACM style SERIAL_STATE bitmap:
// bit0 DCD, bit1 DSR, bit3 RI, plus bit4 CTS as an extension.
func (s ModemSignals) Bits() uint16 {
	var v uint16
	if s.DCD {
		v |= 1 << 0
	}
	if s.DSR {
		v |= 1 << 1
	}
	if s.RI {
		v |= 1 << 3
	}
	if s.CTS {
		v |= 1 << 4
	}
	return v
}

// SignalMask identifies which signals to monitor
type SignalMask int

const (
	SignalCTS SignalMask = 1 << iota
	SignalDSR
	SignalRI
	SignalDCD
)

// SignalAll monitors every input line
const SignalAll = SignalCTS | SignalDSR | SignalRI | SignalDCD

// standardBaudRates lists the rates the termios layer can express
var standardBaudRates = []int{
	50, 75, 110, 134, 150, 200, 300, 600, 1200, 1800, 2400, 4800, 9600,
	19200, 38400, 57600, 115200, 230400, 460800, 500000, 576000, 921600,
	1000000, 1152000, 1500000, 2000000, 2500000, 3000000, 3500000, 4000000,
}

// IsStandardBaudRate reports whether rate is one the port layer can apply
func IsStandardBaudRate(rate int) bool {
	i := sort.SearchInts(standardBaudRates, rate)
	return i < len(standardBaudRates) && standardBaudRates[i] == rate
}
