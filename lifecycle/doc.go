// Package lifecycle drives one adapter at a time through open, configure,
// active and teardown, and starts over when it is unplugged.
//
// The Manager loop moves through Idle, Opening, Configuring, Active and
// Disconnecting. Finding no device is not an error; the opener's timeout is
// the polling interval. Hard errors while opening or configuring are logged
// and retried after a back-off. On every session boundary the ingest state
// is reset, so a line cut short by an unplug is dropped rather than emitted.
package lifecycle
