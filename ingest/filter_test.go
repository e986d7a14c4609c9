package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(f *Filter, data []byte) []Action {
	out := make([]Action, len(data))
	for i, b := range data {
		out[i] = f.Feed(b)
	}
	return out
}

func TestFilterIsTotal(t *testing.T) {
	for v := 0; v < 256; v++ {
		f := NewFilter()
		a := f.Feed(byte(v))
		assert.Contains(t, []Action{Consume, Drop, DropAndFlush}, a, "byte %#02x", v)
	}
}

func TestFilterPayloadBytes(t *testing.T) {
	f := NewFilter()
	for _, a := range feedAll(f, []byte("hello world 123\n")) {
		assert.Equal(t, Consume, a)
	}
	assert.True(t, f.State().Idle())
}

func TestFilterStatusFrame(t *testing.T) {
	tests := []struct {
		name        string
		statusBytes int
		input       []byte
		want        []Action
	}{
		{
			name:        "marker and one status byte",
			statusBytes: 1,
			input:       []byte{StatusMarker, 0x60, 'x'},
			want:        []Action{Drop, Drop, Consume},
		},
		{
			name:        "marker and two status bytes",
			statusBytes: 2,
			input:       []byte{StatusMarker, 0x60, 0x62, 'x'},
			want:        []Action{Drop, Drop, Drop, Consume},
		},
		{
			name:        "status bytes that look like markers",
			statusBytes: 2,
			input:       []byte{StatusMarker, CarriageReturn, EscapeMarker, 'x'},
			want:        []Action{Drop, Drop, Drop, Consume},
		},
		{
			name:        "marker alone",
			statusBytes: 0,
			input:       []byte{StatusMarker, 'x'},
			want:        []Action{Drop, Consume},
		},
		{
			name:        "back to back frames",
			statusBytes: 1,
			input:       []byte{StatusMarker, 0x60, StatusMarker, 0x62, 'x'},
			want:        []Action{Drop, Drop, Drop, Drop, Consume},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(WithStatusBytes(tt.statusBytes))
			assert.Equal(t, tt.want, feedAll(f, tt.input))
			assert.True(t, f.State().Idle())
		})
	}
}

func TestFilterStatusFrameState(t *testing.T) {
	f := NewFilter(WithStatusBytes(2))

	f.Feed(StatusMarker)
	assert.Equal(t, FilterState{StatusOpen: true, StatusRemaining: 2}, f.State())
	f.Feed(0x60)
	assert.Equal(t, FilterState{StatusOpen: true, StatusRemaining: 1}, f.State())
	f.Feed(0x62)
	assert.Equal(t, FilterState{}, f.State())
}

func TestFilterEscapeSequence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // payload that survives
	}{
		{"sgr colour", "\x1b[0;32mok", "ok"},
		{"sgr reset mid line", "a\x1b[0mb", "ab"},
		{"unterminated", "a\x1b[1;31", "a"},
		{"newline inside sequence", "\x1b[\r\n1mz", "z"},
		{"two sequences", "\x1b[1m\x1b[33mY\x1b[0m", "Y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter()
			var got []byte
			for i := 0; i < len(tt.input); i++ {
				if f.Feed(tt.input[i]) == Consume {
					got = append(got, tt.input[i])
				}
			}
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestFilterEscapeDropsMarkerThroughTerminator(t *testing.T) {
	f := NewFilter()
	actions := feedAll(f, []byte("\x1b[0;31mX"))
	for i, a := range actions[:len(actions)-1] {
		assert.Equal(t, Drop, a, "byte %d", i)
	}
	assert.Equal(t, Consume, actions[len(actions)-1])
	assert.False(t, f.State().EscapeOpen)
}

func TestFilterCRLF(t *testing.T) {
	f := NewFilter()
	assert.Equal(t, []Action{Consume, Drop, DropAndFlush}, feedAll(f, []byte("a\r\n")))
	assert.True(t, f.State().Idle())
}

func TestFilterBareLineFeedIsPayload(t *testing.T) {
	f := NewFilter()
	assert.Equal(t, Consume, f.Feed(LineFeed))
}

func TestFilterLoneCarriageReturn(t *testing.T) {
	tests := []struct {
		name       string
		lineEnding LineEnding
		input      string
		want       []Action
		pending    bool
	}{
		{
			name:       "permissive keeps line pending",
			lineEnding: LineEndingPermissive,
			input:      "\rab",
			want:       []Action{Drop, Consume, Consume},
			pending:    true,
		},
		{
			name:       "permissive flushes on a later line feed",
			lineEnding: LineEndingPermissive,
			input:      "\rab\n",
			want:       []Action{Drop, Consume, Consume, DropAndFlush},
		},
		{
			name:       "strict clears on the next byte",
			lineEnding: LineEndingStrict,
			input:      "\rab",
			want:       []Action{Drop, Consume, Consume},
		},
		{
			name:       "strict treats a later line feed as payload",
			lineEnding: LineEndingStrict,
			input:      "\rab\n",
			want:       []Action{Drop, Consume, Consume, Consume},
		},
		{
			name:       "strict still pairs CRLF",
			lineEnding: LineEndingStrict,
			input:      "ab\r\n",
			want:       []Action{Consume, Consume, Drop, DropAndFlush},
		},
		{
			name:       "strict CR CR LF",
			lineEnding: LineEndingStrict,
			input:      "\r\r\n",
			want:       []Action{Drop, Drop, DropAndFlush},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(WithLineEnding(tt.lineEnding))
			assert.Equal(t, tt.want, feedAll(f, []byte(tt.input)))
			assert.Equal(t, tt.pending, f.State().LinePending)
		})
	}
}

func TestFilterReset(t *testing.T) {
	f := NewFilter(WithStatusBytes(2))
	feedAll(f, []byte{'\r', EscapeMarker, StatusMarker})
	require.False(t, f.State().Idle())

	f.Reset()
	assert.True(t, f.State().Idle())
	assert.Equal(t, Consume, f.Feed('a'))
}

func TestParseLineEnding(t *testing.T) {
	le, ok := ParseLineEnding("strict")
	assert.True(t, ok)
	assert.Equal(t, LineEndingStrict, le)

	le, ok = ParseLineEnding("")
	assert.True(t, ok)
	assert.Equal(t, LineEndingPermissive, le)

	_, ok = ParseLineEnding("crlf")
	assert.False(t, ok)
}
