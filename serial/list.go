//go:build linux

package serial

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	// devDir and sysfsRoot are variables so tests can point them at fixtures
	devDir    = "/dev"
	sysfsRoot = "/sys"

	serialPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
		regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
		regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
		regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
		regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
		regexp.MustCompile(`^ttyO\d+$`),   // OMAP serial ports
		regexp.MustCompile(`^ttySAC\d+$`), // Samsung serial ports
		regexp.MustCompile(`^ttyTHS\d+$`), // Tegra serial ports
	}

	excludePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^tty\d+$`),  // Virtual terminals (tty1, tty2, etc.)
		regexp.MustCompile(`^console$`), // Console
		regexp.MustCompile(`^ptmx$`),    // Pseudo-terminal multiplexer
		regexp.MustCompile(`^pty.*$`),   // Pseudo-terminals
		regexp.MustCompile(`^pts/.*$`),  // Pseudo-terminal slaves
	}
)

// IsSerialName reports whether a /dev entry name looks like a serial port
func IsSerialName(name string) bool {
	for _, p := range excludePatterns {
		if p.MatchString(name) {
			return false
		}
	}
	for _, p := range serialPatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// ListPorts returns a list of available serial ports on the system
// Filters for communication-capable devices and excludes virtual terminals
func ListPorts() ([]string, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		name := entry.Name()
		if !IsSerialName(name) {
			continue
		}
		fullPath := filepath.Join(devDir, name)
		if isCharacterDevice(fullPath) {
			ports = append(ports, fullPath)
		}
	}

	sort.Strings(ports)
	return ports, nil
}

// ListUSBPorts returns info for every serial port backed by a USB device,
// sorted by path
func ListUSBPorts() ([]PortInfo, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}

	var infos []PortInfo
	for _, p := range ports {
		info, err := GetPortInfo(p)
		if err != nil || !info.IsUSB() {
			continue
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// GetPortInfo returns detailed information about a specific port
func GetPortInfo(portPath string) (*PortInfo, error) {
	if !isCharacterDevice(portPath) {
		return nil, ErrDeviceNotFound
	}

	name := filepath.Base(portPath)
	info := &PortInfo{
		Name:        name,
		Path:        portPath,
		Description: getPortDescription(name),
	}
	enrichUSBInfo(info)
	return info, nil
}

// enrichUSBInfo fills USB metadata for info from the live sysfs tree
func enrichUSBInfo(info *PortInfo) {
	enrichUSBInfoFrom(sysfsRoot, info)
}

// enrichUSBInfoFrom resolves class/tty/<name>/device under root and walks up
// to the USB device directory, the first ancestor carrying idVendor.
// Missing files leave fields empty.
func enrichUSBInfoFrom(root string, info *PortInfo) {
	deviceLink := filepath.Join(root, "class", "tty", info.Name, "device")
	resolved, err := filepath.EvalSymlinks(deviceLink)
	if err != nil {
		return
	}

	if driver, err := filepath.EvalSymlinks(filepath.Join(resolved, "driver")); err == nil {
		info.KernelDriver = filepath.Base(driver)
	}

	// ttyUSB nodes sit one level below the interface, ttyACM nodes are the interface
	interfacePath := resolved
	if _, err := os.Stat(filepath.Join(interfacePath, "bInterfaceNumber")); err != nil {
		interfacePath = filepath.Dir(resolved)
	}
	info.InterfaceNumber = readSysfsFile(filepath.Join(interfacePath, "bInterfaceNumber"))

	dir := interfacePath
	for dir != root && dir != "/" && dir != "." {
		if _, err := os.Stat(filepath.Join(dir, "idVendor")); err == nil {
			info.VendorID = readSysfsFile(filepath.Join(dir, "idVendor"))
			info.ProductID = readSysfsFile(filepath.Join(dir, "idProduct"))
			info.SerialNumber = readSysfsFile(filepath.Join(dir, "serial"))
			info.Manufacturer = readSysfsFile(filepath.Join(dir, "manufacturer"))
			info.Product = readSysfsFile(filepath.Join(dir, "product"))
			info.BusNumber = readSysfsFile(filepath.Join(dir, "busnum"))
			info.DeviceNumber = readSysfsFile(filepath.Join(dir, "devnum"))
			return
		}
		dir = filepath.Dir(dir)
	}
}

// readSysfsFile returns the trimmed contents of a sysfs attribute, or "" on error
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SysfsAttributePath returns the path of a per-port usb-serial attribute such as
// latency_timer, e.g. /sys/bus/usb-serial/devices/ttyUSB0/latency_timer
func SysfsAttributePath(portName, attribute string) string {
	return filepath.Join(sysfsRoot, "bus", "usb-serial", "devices", portName, attribute)
}
