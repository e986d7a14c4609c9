package ingest

import (
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Sink accepts sealed messages without blocking
type Sink interface {
	TrySend(Message) bool
}

// FramerStats counts what a framer did with sealed lines
type FramerStats struct {
	Emitted    uint64 // accepted by the sink
	Rejected   uint64 // refused by the sink
	Suppressed uint64 // empty lines not forwarded
}

// Framer accumulates payload bytes into a fixed buffer and seals it into a
// Message on a line boundary or when the buffer holds MaxMessageLen-1 bytes
type Framer struct {
	buf  [MaxMessageLen]byte
	n    int
	sink Sink

	suppressEmpty bool
	tap           func(Message)
	log           zerolog.Logger
	overflowing   bool

	emitted    atomic.Uint64
	rejected   atomic.Uint64
	suppressed atomic.Uint64
}

// NewFramer returns an empty framer handing messages to sink
func NewFramer(sink Sink, opts ...Option) *Framer {
	return newFramer(sink, buildConfig(opts))
}

func newFramer(sink Sink, c Config) *Framer {
	return &Framer{
		sink:          sink,
		suppressEmpty: c.SuppressEmpty,
		tap:           c.Tap,
		log:           c.Logger,
	}
}

// Append adds a payload byte, flushing when the buffer is full
func (f *Framer) Append(b byte) {
	f.buf[f.n] = b
	f.n++
	if f.n == MaxMessageLen-1 {
		f.Flush()
	}
}

// Flush seals the current buffer into a Message and hands it to the sink
func (f *Framer) Flush() {
	if f.n == 0 && f.suppressEmpty {
		f.suppressed.Inc()
		return
	}

	msg := NewMessage(f.buf[:f.n])
	f.n = 0

	if f.tap != nil {
		f.tap(msg)
	}

	if f.sink.TrySend(msg) {
		f.emitted.Inc()
		if f.overflowing {
			f.overflowing = false
			f.log.Info().Uint64("dropped_total", f.rejected.Load()).Msg("message queue accepting again")
		}
		return
	}

	f.rejected.Inc()
	if !f.overflowing {
		f.overflowing = true
		f.log.Warn().Int("len", msg.Len()).Msg("message queue full, dropping newest")
	}
}

// Len returns the number of bytes waiting in the current line
func (f *Framer) Len() int { return f.n }

// Reset discards the current line without emitting it
func (f *Framer) Reset() {
	f.buf = [MaxMessageLen]byte{}
	f.n = 0
}

// Stats returns the framer counters
func (f *Framer) Stats() FramerStats {
	return FramerStats{
		Emitted:    f.emitted.Load(),
		Rejected:   f.rejected.Load(),
		Suppressed: f.suppressed.Load(),
	}
}
