package vcp

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/allbin/vcpmon/serial"
)

// FTDIVendor is the FTDI USB vendor ID
const FTDIVendor = 0x0403

// ftdiLatency is the latency timer in milliseconds set on open. The kernel
// default of 16ms batches short log lines into late bursts.
const ftdiLatency = 1

// FTDI drives FT232R, FT2232, FT4232H, FT232H and FT-X chips
type FTDI struct {
	chip
}

// NewFTDI returns the FTDI driver
func NewFTDI() *FTDI {
	return &FTDI{chip{
		name: "ftdi",
		ids: []USBID{
			{FTDIVendor, 0x6001, "FT232R"},
			{FTDIVendor, 0x6010, "FT2232"},
			{FTDIVendor, 0x6011, "FT4232H"},
			{FTDIVendor, 0x6014, "FT232H"},
			{FTDIVendor, 0x6015, "FT-X"},
		},
		kernelDrivers: []string{"ftdi_sio"},
		maxBaud:       3000000,
		minDataBits:   7,
	}}
}

// Tune lowers the latency timer of the ftdi_sio driver. Ports without the
// attribute are left alone.
func (d *FTDI) Tune(info serial.PortInfo) error {
	path := serial.SysfsAttributePath(info.Name, "latency_timer")
	if path == "" {
		return nil
	}
	return setLatencyTimer(path, ftdiLatency)
}

func setLatencyTimer(path string, ms int) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read latency timer: %w", err)
	}

	current, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err == nil && current <= ms {
		return nil
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(ms)), 0o644); err != nil {
		return fmt.Errorf("write latency timer: %w", err)
	}
	return nil
}
