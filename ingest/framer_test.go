package ingest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSink records every message it is offered
type sliceSink struct {
	msgs   []Message
	refuse bool
}

func (s *sliceSink) TrySend(m Message) bool {
	if s.refuse {
		return false
	}
	s.msgs = append(s.msgs, m)
	return true
}

func (s *sliceSink) strings() []string {
	out := make([]string, len(s.msgs))
	for i, m := range s.msgs {
		out[i] = m.String()
	}
	return out
}

func TestMessageZeroTerminated(t *testing.T) {
	m := NewMessage([]byte("abc"))
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, "abc", m.String())
	for i := m.Len(); i < MaxMessageLen; i++ {
		require.Zero(t, m.buf[i], "byte %d", i)
	}
}

func TestMessageTruncates(t *testing.T) {
	m := NewMessage(bytes.Repeat([]byte{'x'}, 1000))
	assert.Equal(t, MaxMessageLen-1, m.Len())
	assert.Zero(t, m.buf[MaxMessageLen-1])
}

func TestMessageBytesIsACopy(t *testing.T) {
	m := NewMessage([]byte("abc"))
	b := m.Bytes()
	b[0] = 'z'
	assert.Equal(t, "abc", m.String())
}

func TestFramerFlush(t *testing.T) {
	sink := &sliceSink{}
	f := NewFramer(sink)

	for _, b := range []byte("hi") {
		f.Append(b)
	}
	f.Flush()

	require.Len(t, sink.msgs, 1)
	assert.Equal(t, "hi", sink.msgs[0].String())
	assert.Zero(t, f.Len())
	assert.Equal(t, uint64(1), f.Stats().Emitted)
}

func TestFramerBufferFullBoundary(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		wantMsgs  int
		remaining int
	}{
		{"C-2 bytes stay buffered", MaxMessageLen - 2, 0, MaxMessageLen - 2},
		{"C-1 bytes flush", MaxMessageLen - 1, 1, 0},
		{"C bytes flush once and carry one", MaxMessageLen, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &sliceSink{}
			f := NewFramer(sink)
			for i := 0; i < tt.n; i++ {
				f.Append('a')
			}
			require.Len(t, sink.msgs, tt.wantMsgs)
			assert.Equal(t, tt.remaining, f.Len())
			if tt.wantMsgs > 0 {
				assert.Equal(t, MaxMessageLen-1, sink.msgs[0].Len())
			}
		})
	}
}

func TestFramerEmptyLines(t *testing.T) {
	forward := &sliceSink{}
	NewFramer(forward).Flush()
	require.Len(t, forward.msgs, 1)
	assert.Zero(t, forward.msgs[0].Len())

	suppress := &sliceSink{}
	f := NewFramer(suppress, WithSuppressEmpty())
	f.Flush()
	assert.Empty(t, suppress.msgs)
	assert.Equal(t, uint64(1), f.Stats().Suppressed)
}

func TestFramerResetDiscardsPartialLine(t *testing.T) {
	sink := &sliceSink{}
	f := NewFramer(sink)
	for _, b := range []byte("partial") {
		f.Append(b)
	}

	f.Reset()
	f.Append('x')
	f.Flush()

	assert.Equal(t, []string{"x"}, sink.strings())
}

func TestFramerCountsRejected(t *testing.T) {
	sink := &sliceSink{refuse: true}
	f := NewFramer(sink)
	f.Flush()
	f.Flush()

	stats := f.Stats()
	assert.Equal(t, uint64(2), stats.Rejected)
	assert.Zero(t, stats.Emitted)
}

func TestFramerTap(t *testing.T) {
	var tapped []string
	sink := &sliceSink{}
	f := NewFramer(sink, WithTap(func(m Message) { tapped = append(tapped, m.String()) }))

	f.Append('a')
	f.Flush()

	assert.Equal(t, []string{"a"}, tapped)
	assert.Equal(t, []string{"a"}, sink.strings())
}
