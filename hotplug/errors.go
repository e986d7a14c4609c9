package hotplug

import "errors"

var (
	// ErrClaimed is returned when claiming a device that is already in use
	ErrClaimed = errors.New("device already claimed")
	// ErrGone is returned when claiming a device that is no longer attached
	ErrGone = errors.New("device not attached")
	// ErrClosed is returned once the monitor has been closed
	ErrClosed = errors.New("monitor closed")
)
