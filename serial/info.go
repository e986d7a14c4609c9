package serial

import (
	"fmt"
	"strconv"
	"strings"
)

// PortInfo describes a serial port and, for USB adapters, the USB device behind it
type PortInfo struct {
	Name         string
	Path         string
	Description  string
	VendorID     string // four hex digits as reported by sysfs, e.g. "0403"
	ProductID    string
	SerialNumber string
	Manufacturer string
	Product      string
	KernelDriver string // e.g. "ftdi_sio", "cp210x", "ch341"

	InterfaceNumber string
	BusNumber       string
	DeviceNumber    string
}

// IsUSB reports whether USB metadata was found for the port
func (i PortInfo) IsUSB() bool {
	return i.VendorID != "" && i.ProductID != ""
}

// USBID returns the parsed vendor and product IDs
func (i PortInfo) USBID() (vid, pid uint16, err error) {
	if !i.IsUSB() {
		return 0, 0, ErrUSBInfoNotAvailable
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(i.VendorID), "0x"), 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("parse vendor id %q: %w", i.VendorID, err)
	}
	p, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(i.ProductID), "0x"), 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("parse product id %q: %w", i.ProductID, err)
	}
	return uint16(v), uint16(p), nil
}

func (i PortInfo) String() string {
	if i.IsUSB() {
		return fmt.Sprintf("%s [%s:%s]", i.Path, i.VendorID, i.ProductID)
	}
	return i.Path
}

// getPortDescription provides human-readable descriptions for different port types
func getPortDescription(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial Port"
	case strings.HasPrefix(name, "ttySAC"):
		return "Samsung Serial Port"
	case strings.HasPrefix(name, "ttyTHS"):
		return "Tegra Serial Port"
	case strings.HasPrefix(name, "ttyO"):
		return "OMAP Serial Port"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial Port"
	default:
		return "Serial Port"
	}
}
