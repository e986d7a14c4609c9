//go:build !linux

package serial

import (
	"path/filepath"
	"sort"

	"go.bug.st/serial/enumerator"
)

// IsSerialName reports whether a device entry name looks like a serial port
func IsSerialName(name string) bool {
	return name != ""
}

// ListPorts returns a list of available serial ports on the system
func ListPorts() ([]string, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	ports := make([]string, 0, len(details))
	for _, d := range details {
		ports = append(ports, d.Name)
	}
	sort.Strings(ports)
	return ports, nil
}

// ListUSBPorts returns info for every serial port backed by a USB device
func ListUSBPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	var infos []PortInfo
	for _, d := range details {
		if !d.IsUSB {
			continue
		}
		infos = append(infos, fromDetails(d))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

// GetPortInfo returns detailed information about a specific port
func GetPortInfo(portPath string) (*PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	for _, d := range details {
		if d.Name == portPath {
			info := fromDetails(d)
			return &info, nil
		}
	}
	return nil, ErrDeviceNotFound
}

func fromDetails(d *enumerator.PortDetails) PortInfo {
	name := filepath.Base(d.Name)
	return PortInfo{
		Name:         name,
		Path:         d.Name,
		Description:  getPortDescription(name),
		VendorID:     d.VID,
		ProductID:    d.PID,
		SerialNumber: d.SerialNumber,
		Product:      d.Product,
	}
}

// SysfsAttributePath has no meaning without sysfs and returns ""
func SysfsAttributePath(portName, attribute string) string {
	return ""
}
