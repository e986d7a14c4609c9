package vcp

import "errors"

var (
	// ErrNotFound is returned when no supported device appeared in time.
	// Callers are expected to retry.
	ErrNotFound = errors.New("no supported device found")
	// ErrConfigRejected is returned when a chip cannot do the requested line coding
	ErrConfigRejected = errors.New("line coding rejected by adapter")
	// ErrDeviceClosed is returned by operations on a closed device
	ErrDeviceClosed = errors.New("device closed")
)
