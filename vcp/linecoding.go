package vcp

import (
	"fmt"
	"strconv"

	"github.com/allbin/vcpmon/serial"
)

// LineCoding is the negotiated baud rate, data bits, parity and stop bits
type LineCoding struct {
	BaudRate int
	DataBits int
	Parity   serial.Parity
	StopBits int
}

// DefaultLineCoding returns 115200 8N1
func DefaultLineCoding() LineCoding {
	return LineCoding{BaudRate: 115200, DataBits: 8, Parity: serial.ParityNone, StopBits: 1}
}

// String formats the line coding as "115200 8N1"
func (lc LineCoding) String() string {
	return fmt.Sprintf("%d %d%s%d", lc.BaudRate, lc.DataBits, lc.Parity, lc.StopBits)
}

// ParseFraming parses the "8N1" part of a line coding
func ParseFraming(s string) (dataBits int, parity serial.Parity, stopBits int, err error) {
	if len(s) != 3 {
		return 0, 0, 0, fmt.Errorf("framing %q: want three characters like 8N1", s)
	}
	dataBits, err = strconv.Atoi(s[:1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("framing %q: data bits: %w", s, err)
	}
	switch s[1] {
	case 'N', 'n':
		parity = serial.ParityNone
	case 'O', 'o':
		parity = serial.ParityOdd
	case 'E', 'e':
		parity = serial.ParityEven
	case 'M', 'm':
		parity = serial.ParityMark
	case 'S', 's':
		parity = serial.ParitySpace
	default:
		return 0, 0, 0, fmt.Errorf("framing %q: unknown parity %q", s, s[1])
	}
	stopBits, err = strconv.Atoi(s[2:])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("framing %q: stop bits: %w", s, err)
	}
	return dataBits, parity, stopBits, nil
}

func (lc LineCoding) options() []serial.Option {
	return []serial.Option{
		serial.WithBaudRate(lc.BaudRate),
		serial.WithDataBits(lc.DataBits),
		serial.WithParity(lc.Parity),
		serial.WithStopBits(lc.StopBits),
	}
}
