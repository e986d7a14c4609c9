package ingest

// MaxMessageLen is the capacity of a Message buffer. A message carries at
// most MaxMessageLen-1 payload bytes, so the buffer is always zero-terminated.
const MaxMessageLen = 256

// Message is one framed record. It is a value type: copying a Message copies
// its bytes, so nothing aliases the framer's working buffer.
type Message struct {
	buf [MaxMessageLen]byte
	n   int
}

// NewMessage builds a message from data, truncating to MaxMessageLen-1 bytes
func NewMessage(data []byte) Message {
	var m Message
	m.n = copy(m.buf[:MaxMessageLen-1], data)
	return m
}

// Len returns the payload length
func (m Message) Len() int { return m.n }

// Bytes returns a copy of the payload
func (m Message) Bytes() []byte {
	out := make([]byte, m.n)
	copy(out, m.buf[:m.n])
	return out
}

func (m Message) String() string { return string(m.buf[:m.n]) }
