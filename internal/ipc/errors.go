package ipc

import "errors"

// Channel errors.
var (
	// ErrChannelClosed is returned when operating on a closed channel.
	ErrChannelClosed = errors.New("channel is closed")

	// ErrDialFailed is returned when the parent channel cannot be reached.
	ErrDialFailed = errors.New("failed to dial parent channel")
)
