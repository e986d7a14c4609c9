package vcp

import (
	"testing"

	"github.com/allbin/vcpmon/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usbInfo(vid, pid string) serial.PortInfo {
	return serial.PortInfo{Name: "ttyUSB0", Path: "/dev/ttyUSB0", VendorID: vid, ProductID: pid}
}

func TestDriverProbe(t *testing.T) {
	tests := []struct {
		name   string
		info   serial.PortInfo
		driver string
	}{
		{"FT232R", usbInfo("0403", "6001"), "ftdi"},
		{"FT232H", usbInfo("0403", "6014"), "ftdi"},
		{"FT-X", usbInfo("0403", "6015"), "ftdi"},
		{"CP2102", usbInfo("10c4", "ea60"), "cp210x"},
		{"CP2108", usbInfo("10C4", "EA71"), "cp210x"},
		{"CH340", usbInfo("1a86", "7523"), "ch34x"},
		{"CH9102", usbInfo("1a86", "55d4"), "ch34x"},
		{"kernel driver only", serial.PortInfo{Path: "/dev/ttyUSB3", KernelDriver: "ch341"}, "ch34x"},
		{"unknown FTDI product", usbInfo("0403", "ffff"), ""},
		{"CDC-ACM board", usbInfo("2e8a", "000a"), ""},
		{"no metadata", serial.PortInfo{Path: "/dev/ttyS0"}, ""},
	}

	reg := DefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := reg.Lookup(tt.info)
			if tt.driver == "" {
				assert.False(t, ok, "matched %v", d)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.driver, d.Name())
		})
	}
}

func TestDefaultRegistryOrder(t *testing.T) {
	var names []string
	for _, d := range DefaultRegistry().Drivers() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"ftdi", "cp210x", "ch34x"}, names)
}

func TestRegisterIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	assert.True(t, reg.Register(NewFTDI()))
	assert.False(t, reg.Register(NewFTDI()))
	assert.Len(t, reg.Drivers(), 1)
}

// catchAll accepts every device
type catchAll struct{ chip }

func TestLookupFirstMatchWins(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&catchAll{chip{name: "first", kernelDrivers: []string{"ftdi_sio"}}})
	reg.Register(NewFTDI())

	d, ok := reg.Lookup(serial.PortInfo{Path: "/dev/ttyUSB0", KernelDriver: "ftdi_sio"})
	require.True(t, ok)
	assert.Equal(t, "first", d.Name())

	d, ok = reg.Lookup(usbInfo("0403", "6001"))
	require.True(t, ok)
	assert.Equal(t, "ftdi", d.Name(), "USB IDs are authoritative when present")
}

func TestDriverIDs(t *testing.T) {
	ids := NewFTDI().IDs()
	require.Len(t, ids, 5)
	assert.Equal(t, "0403:6001", ids[0].String())
	assert.Equal(t, "FT232R", ids[0].Model)

	// The returned slice is a copy
	ids[0].Product = 0
	assert.Equal(t, uint16(0x6001), NewFTDI().IDs()[0].Product)

	assert.Len(t, NewCP210x().IDs(), 5)
	assert.Len(t, NewCH34x().IDs(), 4)
}

func TestChipCheck(t *testing.T) {
	tests := []struct {
		name   string
		driver *chip
		lc     LineCoding
		ok     bool
	}{
		{"ftdi default", &NewFTDI().chip, DefaultLineCoding(), true},
		{"ftdi 3M", &NewFTDI().chip, LineCoding{3000000, 8, serial.ParityNone, 1}, true},
		{"ftdi 4M", &NewFTDI().chip, LineCoding{4000000, 8, serial.ParityNone, 1}, false},
		{"ftdi 7E1", &NewFTDI().chip, LineCoding{9600, 7, serial.ParityEven, 1}, true},
		{"ftdi 5N1", &NewFTDI().chip, LineCoding{9600, 5, serial.ParityNone, 1}, false},
		{"cp210x 5N1", &NewCP210x().chip, LineCoding{9600, 5, serial.ParityNone, 1}, true},
		{"cp210x mark parity", &NewCP210x().chip, LineCoding{9600, 8, serial.ParityMark, 2}, true},
		{"ch34x 2M", &NewCH34x().chip, LineCoding{2000000, 8, serial.ParityNone, 1}, true},
		{"ch34x 3M", &NewCH34x().chip, LineCoding{3000000, 8, serial.ParityNone, 1}, false},
		{"three stop bits", &NewCH34x().chip, LineCoding{9600, 8, serial.ParityNone, 3}, false},
		{"zero baud", &NewCH34x().chip, LineCoding{0, 8, serial.ParityNone, 1}, false},
		{"non-standard baud", &NewFTDI().chip, LineCoding{250000, 8, serial.ParityNone, 1}, false},
		{"non-standard baud under cp210x max", &NewCP210x().chip, LineCoding{14400, 8, serial.ParityNone, 1}, false},
		{"bogus parity", &NewCH34x().chip, LineCoding{9600, 8, serial.Parity(9), 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.driver.Check(tt.lc)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrConfigRejected)
			}
		})
	}
}

func TestLineCodingString(t *testing.T) {
	assert.Equal(t, "115200 8N1", DefaultLineCoding().String())
	assert.Equal(t, "9600 7E2", LineCoding{9600, 7, serial.ParityEven, 2}.String())
}

func TestParseFraming(t *testing.T) {
	bits, parity, stop, err := ParseFraming("7e2")
	require.NoError(t, err)
	assert.Equal(t, 7, bits)
	assert.Equal(t, serial.ParityEven, parity)
	assert.Equal(t, 2, stop)

	for _, bad := range []string{"", "8N", "8X1", "xN1", "8N1x"} {
		_, _, _, err := ParseFraming(bad)
		assert.Error(t, err, bad)
	}
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "disconnected", Event{Type: EventDisconnected}.String())
	assert.Equal(t, "serial state 0x0003", Event{
		Type:    EventSerialState,
		Signals: serial.ModemSignals{DCD: true, DSR: true},
	}.String())
}
