package ingest

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainStrings(t *testing.T, q *Queue) []string {
	t.Helper()

	var out []string
	for {
		msg, err := q.Receive(0)
		if err != nil {
			return out
		}
		out = append(out, msg.String())
	}
}

func TestPipelineScenarios(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		opts  []Option
		want  []string
	}{
		{
			name:  "two CRLF lines",
			input: []byte("hi\r\nworld\r\n"),
			want:  []string{"hi", "world"},
		},
		{
			name:  "status frame inside a line",
			input: []byte{'a', StatusMarker, 0x60, 'b', '\r', '\n'},
			want:  []string{"ab"},
		},
		{
			name:  "two byte status frame",
			input: []byte{'a', StatusMarker, 0x60, 0x00, 'b', '\r', '\n'},
			opts:  []Option{WithStatusBytes(2)},
			want:  []string{"ab"},
		},
		{
			name:  "coloured log line",
			input: []byte("\x1b[0;32mI (123) app: ready\x1b[0m\r\n"),
			want:  []string{"I (123) app: ready"},
		},
		{
			name:  "empty line forwarded",
			input: []byte("a\r\n\r\nb\r\n"),
			want:  []string{"a", "", "b"},
		},
		{
			name:  "empty line suppressed",
			input: []byte("a\r\n\r\nb\r\n"),
			opts:  []Option{WithSuppressEmpty()},
			want:  []string{"a", "b"},
		},
		{
			name:  "bare LF is payload",
			input: []byte("a\nb\r\n"),
			want:  []string{"a\nb"},
		},
		{
			name:  "unterminated tail stays buffered",
			input: []byte("done\r\npart"),
			want:  []string{"done"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue(DefaultQueueDepth)
			p := NewPipeline(q, tt.opts...)
			assert.True(t, p.Feed(tt.input))
			assert.Equal(t, tt.want, drainStrings(t, q))
		})
	}
}

func TestPipelineMessageLengths(t *testing.T) {
	q := NewQueue(DefaultQueueDepth)
	NewPipeline(q).Feed([]byte("hi\r\nworld\r\n"))

	first, err := q.Receive(time.Second)
	require.NoError(t, err)
	second, err := q.Receive(time.Second)
	require.NoError(t, err)

	assert.Equal(t, 2, first.Len())
	assert.Equal(t, 5, second.Len())
}

func TestPipelineChunkingDoesNotMatter(t *testing.T) {
	input := []byte("\x1b[1mone\x1b[0m\r\ntw\x01\x60o\r\nthree\r\n")

	whole := NewQueue(DefaultQueueDepth)
	NewPipeline(whole).Feed(input)

	split := NewQueue(DefaultQueueDepth)
	p := NewPipeline(split)
	for i := range input {
		p.Feed(input[i : i+1])
	}

	assert.Equal(t, drainStrings(t, whole), drainStrings(t, split))
}

func TestPipelineIdempotent(t *testing.T) {
	input := append(bytes.Repeat([]byte("x"), 300), []byte("\r\n\x01\x62ok\r\n\x1b[31m!\x1b[0m\r\n")...)

	run := func() []string {
		q := NewQueue(DefaultQueueDepth)
		NewPipeline(q).Feed(input)
		return drainStrings(t, q)
	}

	first := run()
	second := run()
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestPipelineResetDiscardsPartialLine(t *testing.T) {
	q := NewQueue(DefaultQueueDepth)
	p := NewPipeline(q)

	p.Feed([]byte("lost line\r"))
	state, pending := p.State()
	require.True(t, state.LinePending)
	require.Equal(t, 9, pending)

	p.Reset()
	state, pending = p.State()
	assert.True(t, state.Idle())
	assert.Zero(t, pending)

	p.Feed([]byte("\nnext\r\n"))
	assert.Equal(t, []string{"\nnext"}, drainStrings(t, q))
}

func TestPipelineOverflowKeepsOrder(t *testing.T) {
	q := NewQueue(2)
	p := NewPipeline(q)

	p.Feed([]byte("1\r\n2\r\n3\r\n"))

	assert.Equal(t, []string{"1", "2"}, drainStrings(t, q))
	assert.Equal(t, uint64(1), p.Stats().Rejected)
	assert.Equal(t, uint64(1), q.Stats().Dropped)
}
