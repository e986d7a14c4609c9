package vcp

import (
	"errors"
	"fmt"

	"github.com/allbin/vcpmon/serial"
)

// USBID is one vendor/product pair a driver matches
type USBID struct {
	Vendor  uint16
	Product uint16
	Model   string
}

func (id USBID) String() string {
	return fmt.Sprintf("%04x:%04x", id.Vendor, id.Product)
}

// Driver is the probe and configure strategy for one chipset family
type Driver interface {
	// Name identifies the driver in the registry
	Name() string
	// IDs lists the USB IDs the driver matches
	IDs() []USBID
	// Probe reports whether the driver handles the device
	Probe(info serial.PortInfo) bool
	// Configure applies lc to an open port
	Configure(port serial.Port, lc LineCoding) error
}

// Tuner is implemented by drivers that adjust the device before it is opened
type Tuner interface {
	Tune(info serial.PortInfo) error
}

// chip is a Driver described by its USB IDs, kernel drivers and capabilities
type chip struct {
	name          string
	ids           []USBID
	kernelDrivers []string
	maxBaud       int
	minDataBits   int
}

func (c *chip) Name() string { return c.name }

func (c *chip) IDs() []USBID {
	out := make([]USBID, len(c.ids))
	copy(out, c.ids)
	return out
}

// Probe matches on USB IDs, falling back to the bound kernel driver when
// sysfs did not report IDs
func (c *chip) Probe(info serial.PortInfo) bool {
	if vid, pid, err := info.USBID(); err == nil {
		for _, id := range c.ids {
			if id.Vendor == vid && id.Product == pid {
				return true
			}
		}
		return false
	}

	for _, kd := range c.kernelDrivers {
		if info.KernelDriver == kd {
			return true
		}
	}
	return false
}

// Check validates lc against the chip's capabilities
func (c *chip) Check(lc LineCoding) error {
	switch {
	case lc.BaudRate <= 0 || lc.BaudRate > c.maxBaud:
		return fmt.Errorf("%w: %s supports up to %d baud, got %d", ErrConfigRejected, c.name, c.maxBaud, lc.BaudRate)
	case !serial.IsStandardBaudRate(lc.BaudRate):
		return fmt.Errorf("%w: %d is not a standard baud rate", ErrConfigRejected, lc.BaudRate)
	case lc.DataBits < c.minDataBits || lc.DataBits > 8:
		return fmt.Errorf("%w: %s supports %d to 8 data bits, got %d", ErrConfigRejected, c.name, c.minDataBits, lc.DataBits)
	case lc.StopBits != 1 && lc.StopBits != 2:
		return fmt.Errorf("%w: %s supports 1 or 2 stop bits, got %d", ErrConfigRejected, c.name, lc.StopBits)
	case lc.Parity < serial.ParityNone || lc.Parity > serial.ParitySpace:
		return fmt.Errorf("%w: %s: unknown parity %d", ErrConfigRejected, c.name, int(lc.Parity))
	}
	return nil
}

func (c *chip) Configure(port serial.Port, lc LineCoding) error {
	if err := c.Check(lc); err != nil {
		return err
	}
	if err := port.Configure(lc.options()...); err != nil {
		if errors.Is(err, serial.ErrInvalidBaudRate) || errors.Is(err, serial.ErrInvalidConfig) {
			return fmt.Errorf("%w: %s: apply %s: %v", ErrConfigRejected, c.name, lc, err)
		}
		return fmt.Errorf("%s: apply %s: %w", c.name, lc, err)
	}
	return nil
}
