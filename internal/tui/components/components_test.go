package components

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/allbin/vcpmon/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestPrintable(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		charset  *charmap.Charmap
		expected string
	}{
		{"plain text", []byte("hello world"), nil, "hello world"},
		{"empty", nil, nil, ""},
		{"control bytes", []byte{'a', 0x00, 0x07, 'b', 0x7f}, nil, "a..b."},
		{"high bytes as ascii", []byte{'x', 0xe9, 0x82}, nil, "x.."},
		{"latin1", []byte{'c', 'a', 'f', 0xe9}, charmap.ISO8859_1, "café"},
		{"latin1 C1 control", []byte{0x85, 'z'}, charmap.ISO8859_1, ".z"},
		{"cp437", []byte{'c', 'a', 'f', 0x82}, charmap.CodePage437, "café"},
		{"charset keeps control filter", []byte{'\t', 'x'}, charmap.Windows1252, ".x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Printable(tt.data, tt.charset))
		})
	}
}

func TestParseCharset(t *testing.T) {
	cm, err := ParseCharset("")
	require.NoError(t, err)
	assert.Nil(t, cm)

	cm, err = ParseCharset("ASCII")
	require.NoError(t, err)
	assert.Nil(t, cm)

	cm, err = ParseCharset("Latin1")
	require.NoError(t, err)
	assert.Equal(t, charmap.ISO8859_1, cm)

	_, err = ParseCharset("ebcdic")
	assert.ErrorContains(t, err, "unknown charset")

	for _, name := range CharsetNames() {
		_, err := ParseCharset(name)
		assert.NoError(t, err, name)
	}
}

func TestLineFormatter(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 30, 45, 123_000_000, time.UTC)
	line := Line{Timestamp: at, Data: []byte("ok\x01")}

	lf := NewLineFormatter(false, nil)
	assert.Equal(t, "ok.", lf.Format(line))

	lf.ToggleTimestamps()
	assert.Contains(t, lf.Format(line), "12:30:45.123")

	lf.ToggleHex()
	assert.True(t, lf.GetDisplayMode().ShowHex)
	assert.Contains(t, lf.Format(line), "6F 6B 01")
}

func TestLogViewRetention(t *testing.T) {
	v := NewLogView(80, 10, 0, NewLineFormatter(false, nil))

	for i := 0; i < DefaultRetention+10; i++ {
		v.AddLine(Line{Data: []byte(fmt.Sprintf("line %d", i))})
	}

	lines := v.Lines()
	require.Len(t, lines, DefaultRetention)
	assert.Equal(t, "line 10", string(lines[0].Data))
	assert.Equal(t, fmt.Sprintf("line %d", DefaultRetention+9), string(lines[len(lines)-1].Data))

	v.Clear()
	assert.Empty(t, v.Lines())
}

func TestLogViewFollowsNewest(t *testing.T) {
	v := NewLogView(40, 3, 5, NewLineFormatter(false, nil))
	for i := 0; i < 5; i++ {
		v.AddLine(Line{Data: []byte(fmt.Sprintf("row-%d", i))})
	}

	view := v.View()
	assert.Contains(t, view, "row-4")
	assert.NotContains(t, view, "row-0")
}

func TestStatusBar(t *testing.T) {
	sb := NewStatusBar()
	sb.SetWidth(120)
	sb.SetInfo(StatusInfo{
		State:      lifecycle.StateActive,
		Port:       "/dev/ttyUSB0",
		Driver:     "ftdi",
		LineCoding: "115200 8N1",
		Received:   42,
		Dropped:    3,
	})

	view := sb.View("12:00:00")
	for _, want := range []string{"ACTIVE", "/dev/ttyUSB0", "ftdi", "115200 8N1", "rx 42", "dropped 3"} {
		assert.True(t, strings.Contains(view, want), "status bar missing %q: %s", want, view)
	}

	sb.SetState(lifecycle.StateIdle)
	info := sb.Info()
	assert.Empty(t, info.Port)
	assert.Empty(t, info.Driver)
	assert.Contains(t, sb.View("12:00:01"), "waiting for adapter")
}
