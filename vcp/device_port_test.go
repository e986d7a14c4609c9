package vcp

import (
	"context"
	"sync"
	"testing"

	"github.com/allbin/vcpmon/serial"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPort logs the port calls a Device makes
type recordingPort struct {
	serial.Port

	mu    sync.Mutex
	calls []string
}

func (p *recordingPort) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *recordingPort) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *recordingPort) Configure(...serial.Option) error {
	p.record("configure")
	return nil
}

func (p *recordingPort) FlushInput() error {
	p.record("flush-input")
	return nil
}

func (p *recordingPort) WriteContext(_ context.Context, data []byte) (int, error) {
	p.record("write")
	return len(data), nil
}

func (p *recordingPort) Drain() error {
	p.record("drain")
	return nil
}

func newTestDevice(port serial.Port) *Device {
	return &Device{port: port, driver: NewFTDI(), log: zerolog.Nop(), lc: DefaultLineCoding()}
}

func TestSetLineCodingDiscardsStaleInput(t *testing.T) {
	port := &recordingPort{}
	dev := newTestDevice(port)

	require.NoError(t, dev.SetLineCoding(LineCoding{BaudRate: 9600, DataBits: 8, StopBits: 1}))
	assert.Equal(t, []string{"configure", "flush-input"}, port.Calls())
}

func TestSetLineCodingRejectedLeavesInputAlone(t *testing.T) {
	port := &recordingPort{}
	dev := newTestDevice(port)

	err := dev.SetLineCoding(LineCoding{BaudRate: 250000, DataBits: 8, StopBits: 1})
	require.ErrorIs(t, err, ErrConfigRejected)
	assert.Empty(t, port.Calls())
	assert.Equal(t, DefaultLineCoding(), dev.LineCoding())
}

func TestTxBlockingWaitsForTransmission(t *testing.T) {
	port := &recordingPort{}
	dev := newTestDevice(port)

	require.NoError(t, dev.TxBlocking(context.Background(), []byte("test_string")))
	assert.Equal(t, []string{"write", "drain"}, port.Calls())
	assert.Equal(t, uint64(len("test_string")), dev.Stats().TxBytes)
}
