package controller

import "errors"

var (
	// ErrBadState is returned when an operation arrives in a state it is
	// not valid in.
	ErrBadState = errors.New("operation not valid in current state")

	// ErrBadDescriptor is returned when a load descriptor is malformed.
	ErrBadDescriptor = errors.New("invalid load descriptor")
)
