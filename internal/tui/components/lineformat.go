package components

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/allbin/vcpmon/internal/tui/styles"
	"golang.org/x/text/encoding/charmap"
)

// Line is one received message as shown by the renderers
type Line struct {
	Timestamp time.Time
	Data      []byte
}

// LineReceivedMsg delivers a received line to the TUI
type LineReceivedMsg Line

var charsets = map[string]*charmap.Charmap{
	"latin1": charmap.ISO8859_1,
	"latin9": charmap.ISO8859_15,
	"cp437":  charmap.CodePage437,
	"cp850":  charmap.CodePage850,
	"cp1252": charmap.Windows1252,
	"koi8r":  charmap.KOI8R,
}

// ParseCharset maps a charset name to its code page. "ascii" and "" select
// plain 7-bit ASCII and return nil.
func ParseCharset(name string) (*charmap.Charmap, error) {
	name = strings.ToLower(name)
	if name == "" || name == "ascii" {
		return nil, nil
	}
	cm, ok := charsets[name]
	if !ok {
		return nil, fmt.Errorf("unknown charset %q (want ascii, %s)", name, strings.Join(CharsetNames(), ", "))
	}
	return cm, nil
}

// CharsetNames lists the names ParseCharset accepts besides ascii
func CharsetNames() []string {
	names := make([]string, 0, len(charsets))
	for name := range charsets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Printable renders data for a terminal: bytes are decoded through cm (7-bit
// ASCII when cm is nil) and anything that is not a printable character
// becomes '.'
func Printable(data []byte, cm *charmap.Charmap) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		if cm == nil {
			if b >= 0x20 && b <= 0x7e {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
			continue
		}
		if r := cm.DecodeByte(b); unicode.IsPrint(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

type DisplayMode struct {
	ShowHex        bool
	ShowTimestamps bool
}

// LineFormatter turns received lines into display rows
type LineFormatter struct {
	mode    DisplayMode
	charset *charmap.Charmap
}

func NewLineFormatter(showTimestamps bool, charset *charmap.Charmap) *LineFormatter {
	return &LineFormatter{
		mode:    DisplayMode{ShowTimestamps: showTimestamps},
		charset: charset,
	}
}

func (lf *LineFormatter) GetDisplayMode() DisplayMode {
	return lf.mode
}

func (lf *LineFormatter) Format(line Line) string {
	var parts []string

	if lf.mode.ShowTimestamps {
		parts = append(parts, styles.TimestampStyle.Render(line.Timestamp.Format("[15:04:05.000]")))
	}
	if lf.mode.ShowHex {
		parts = append(parts, styles.HexStyle.Render(fmt.Sprintf("% X", line.Data)))
	}
	parts = append(parts, Printable(line.Data, lf.charset))

	return strings.Join(parts, " ")
}

func (lf *LineFormatter) FormatAll(lines []Line) []string {
	formatted := make([]string, len(lines))
	for i, line := range lines {
		formatted[i] = lf.Format(line)
	}
	return formatted
}

func (lf *LineFormatter) ToggleHex() {
	lf.mode.ShowHex = !lf.mode.ShowHex
}

func (lf *LineFormatter) ToggleTimestamps() {
	lf.mode.ShowTimestamps = !lf.mode.ShowTimestamps
}
