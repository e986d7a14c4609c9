// Package serial is the port layer underneath the adapter registry: raw
// termios ports on Linux, USB metadata from sysfs, and USB resets for wedged
// adapters.
//
// # Basic Usage
//
// Open a serial port with default configuration (115200 8N1, no flow control):
//
//	port, err := serial.Open("/dev/ttyUSB0")
//	if err != nil {
//	    return err
//	}
//	defer port.Close()
//
//	n, err := port.Write([]byte("Hello"))
//	buffer := make([]byte, 256)
//	n, err = port.Read(buffer) // 0, nil when the read timeout elapses
//
// # Line Coding
//
// Options validate and set the line coding, either at open time or later on
// an open port:
//
//	port, err := serial.Open("/dev/ttyUSB0",
//	    serial.WithBaudRate(9600),
//	    serial.WithParity(serial.ParityEven),
//	    serial.WithInitialDTR(true),
//	)
//	err = port.Configure(serial.WithBaudRate(115200), serial.WithStopBits(2))
//
// # Port Discovery
//
//	infos, err := serial.ListUSBPorts()
//	for _, info := range infos {
//	    fmt.Printf("%s: %s (VID=%s PID=%s driver=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID, info.KernelDriver)
//	}
//
// # Platform Support
//
// The termios backend and sysfs discovery are Linux-only. Other platforms use
// go.bug.st/serial for both the port and USB enumeration.
package serial
