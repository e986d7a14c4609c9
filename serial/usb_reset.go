package serial

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// reenumerateDelay is how long a reset adapter typically needs to come back
const reenumerateDelay = 2 * time.Second

// ResetUSBDevice performs a USB-level reset of the adapter behind portPath.
// A wedged adapter usually re-enumerates under a new node afterwards, which
// the hotplug monitor then reports as a fresh arrival.
//
// Requirements:
// - usbreset utility must be installed (from usbutils package)
// - Requires appropriate permissions (typically root/sudo)
func ResetUSBDevice(ctx context.Context, portPath string) error {
	info, err := GetPortInfo(portPath)
	if err != nil {
		return fmt.Errorf("failed to get port info: %w", err)
	}
	return resetUSB(ctx, info)
}

// ResetUSBDeviceBySerial resets a USB device by its serial number
// Useful when device paths change after reboot or when multiple devices are connected
func ResetUSBDeviceBySerial(ctx context.Context, serialNumber string) error {
	infos, err := ListUSBPorts()
	if err != nil {
		return err
	}

	for i := range infos {
		if infos[i].SerialNumber == serialNumber {
			return resetUSB(ctx, &infos[i])
		}
	}
	return fmt.Errorf("device with serial %s not found", serialNumber)
}

func resetUSB(ctx context.Context, info *PortInfo) error {
	if info.BusNumber == "" || info.DeviceNumber == "" {
		return ErrUSBInfoNotAvailable
	}
	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	cmd := exec.CommandContext(ctx, "usbreset", formatUSBPath(info.BusNumber, info.DeviceNumber))
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("usbreset failed: %w (output: %s)", err, strings.TrimSpace(string(output)))
	}

	select {
	case <-time.After(reenumerateDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// formatUSBPath builds the BBB/DDD argument usbreset expects
func formatUSBPath(bus, device string) string {
	return zeroPad(bus) + "/" + zeroPad(device)
}

func zeroPad(s string) string {
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

// IsUSBResetAvailable checks if usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := exec.LookPath("usbreset")
	return err == nil
}
