package ingest

// Action tells the framer what to do with a byte
type Action int

const (
	// Consume appends the byte to the current line
	Consume Action = iota
	// Drop discards the byte
	Drop
	// DropAndFlush discards the byte and seals the current line
	DropAndFlush
)

func (a Action) String() string {
	switch a {
	case Consume:
		return "consume"
	case Drop:
		return "drop"
	case DropAndFlush:
		return "drop+flush"
	default:
		return "unknown"
	}
}

// Marker bytes recognised by the filter
const (
	StatusMarker     byte = 0x01 // adapter status frame
	EscapeMarker     byte = 0x1B // ESC, start of a terminal escape sequence
	EscapeTerminator byte = 0x6D // 'm', end of an SGR colour sequence
	CarriageReturn   byte = 0x0D
	LineFeed         byte = 0x0A
)

// FilterState is a snapshot of the filter's sub-states
type FilterState struct {
	StatusOpen      bool
	StatusRemaining int
	EscapeOpen      bool
	LinePending     bool
}

// Idle reports whether no sub-state is active
func (s FilterState) Idle() bool {
	return !s.StatusOpen && !s.EscapeOpen && !s.LinePending
}

// Filter classifies a serial byte stream one byte at a time. It needs no
// lookahead and maps every byte value to an Action. A Filter is not safe for
// concurrent use.
type Filter struct {
	state       FilterState
	statusBytes int
	lineEnding  LineEnding
}

// NewFilter returns a filter in the idle state
func NewFilter(opts ...Option) *Filter {
	c := buildConfig(opts)
	return newFilter(c)
}

func newFilter(c Config) *Filter {
	return &Filter{statusBytes: c.StatusBytes, lineEnding: c.LineEnding}
}

// Feed classifies b and advances the state machine. Rules apply in order:
// status marker, status bytes, escape marker, escape body, carriage return,
// line feed after carriage return, payload.
func (f *Filter) Feed(b byte) Action {
	s := &f.state

	if f.lineEnding == LineEndingStrict && s.LinePending && b != LineFeed {
		s.LinePending = false
	}

	switch {
	case b == StatusMarker:
		s.StatusOpen = f.statusBytes > 0
		s.StatusRemaining = f.statusBytes
		return Drop

	case s.StatusOpen:
		s.StatusRemaining--
		if s.StatusRemaining <= 0 {
			s.StatusOpen = false
			s.StatusRemaining = 0
		}
		return Drop

	case b == EscapeMarker:
		s.EscapeOpen = true
		return Drop

	case s.EscapeOpen:
		if b == EscapeTerminator {
			s.EscapeOpen = false
		}
		return Drop

	case b == CarriageReturn:
		s.LinePending = true
		return Drop

	case s.LinePending && b == LineFeed:
		s.LinePending = false
		return DropAndFlush
	}

	return Consume
}

// State returns a copy of the current sub-states
func (f *Filter) State() FilterState { return f.state }

// Reset returns the filter to the idle state
func (f *Filter) Reset() { f.state = FilterState{} }
