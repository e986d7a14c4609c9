package vcpmon

import (
	"context"
	"testing"
	"time"

	"github.com/allbin/vcpmon/ingest"
	"github.com/allbin/vcpmon/serial"
	"github.com/allbin/vcpmon/vcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDevices() ([]serial.PortInfo, error) { return nil, nil }

func TestStartIsNonBlockingAndSingleton(t *testing.T) {
	core, err := Start(context.Background(), WithDevDir(t.TempDir()), WithScanner(noDevices))
	require.NoError(t, err)

	_, err = Start(context.Background(), WithDevDir(t.TempDir()), WithScanner(noDevices))
	assert.ErrorIs(t, err, ErrAlreadyInstalled)

	_, err = core.Receive(10 * time.Millisecond)
	assert.ErrorIs(t, err, ingest.ErrTimeout)

	require.NoError(t, core.Stop())

	// The transport can be installed again once the first core is gone
	core, err = Start(context.Background(), WithDevDir(t.TempDir()), WithScanner(noDevices))
	require.NoError(t, err)
	require.NoError(t, core.Stop())
}

func TestStartStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	core, err := Start(ctx, WithDevDir(t.TempDir()), WithScanner(noDevices))
	require.NoError(t, err)

	cancel()
	select {
	case <-core.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("core did not stop on cancellation")
	}
	assert.NoError(t, core.Wait())

	_, err = core.Receive(time.Second)
	assert.ErrorIs(t, err, ingest.ErrQueueClosed)
}

func TestStartRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"queue depth", WithQueueDepth(0)},
		{"connection timeout", WithConnectionTimeout(0)},
		{"retry backoff", WithRetryBackoff(-time.Second)},
		{"status bytes", WithStatusBytes(-1)},
		{"line coding", WithLineCoding(vcp.LineCoding{BaudRate: 9600, DataBits: 9, StopBits: 1})},
		{"non-standard baud", WithLineCoding(vcp.LineCoding{BaudRate: 250000, DataBits: 8, StopBits: 1})},
		{"nil driver", WithDriver(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Start(context.Background(), WithScanner(noDevices), tt.opt)
			assert.ErrorIs(t, err, ErrInvalidOption)
		})
	}
}

func TestStartRegistersExtraDrivers(t *testing.T) {
	core, err := Start(context.Background(),
		WithDevDir(t.TempDir()),
		WithScanner(noDevices),
		WithDriver(vcp.NewFTDI()),
	)
	require.NoError(t, err)
	defer core.Stop()

	var names []string
	for _, d := range core.Registry().Drivers() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"ftdi", "cp210x", "ch34x"}, names, "duplicate registration is a no-op")
}
