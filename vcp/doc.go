// Package vcp opens USB virtual COM port adapters through pluggable drivers.
//
// A Driver describes one chipset family: the USB IDs it matches and how it
// applies a line coding. Drivers are kept in a Registry in registration
// order; the first driver whose Probe accepts an attached device wins.
//
//	reg := vcp.DefaultRegistry() // FTDI, CP210x, CH34x
//	dev, err := reg.ProbeAndOpen(ctx, monitor, vcp.DeviceConfig{
//		ConnectionTimeout: 5 * time.Second,
//		OnData:            pipeline.Feed,
//	})
//	if errors.Is(err, vcp.ErrNotFound) {
//		// nothing plugged in yet, try again
//	}
//
// Received bytes are delivered to DeviceConfig.OnData from the device's
// reader goroutine. The buffer is reused between calls, so OnData must not
// retain it.
package vcp
