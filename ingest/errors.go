package ingest

import "errors"

var (
	// ErrTimeout is returned by Receive when no message arrives in time
	ErrTimeout = errors.New("receive timed out")
	// ErrQueueClosed is returned once a closed queue has been drained
	ErrQueueClosed = errors.New("message queue closed")
)
