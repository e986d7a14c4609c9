// Package hotplug tracks USB serial adapters as they come and go.
//
// A Monitor watches the device directory with fsnotify and rescans the
// attached ports whenever a tty node is created or removed. Callers wait for
// a matching device with WaitFor and take exclusive use of it with Claim.
// When a claimed device disappears, its claim's Removed channel closes; that
// is the disconnect notification for the session using it.
//
// Events are only applied while something services them. A Pump runs that
// loop for the lifetime of the process:
//
//	m, err := hotplug.NewMonitor()
//	if err != nil {
//		return err
//	}
//	defer m.Close()
//
//	go hotplug.NewPump(m, logger).Run(ctx)
package hotplug
