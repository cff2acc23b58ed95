package bridge

import "errors"

// Bridge errors.
var (
	// ErrDuplicateAccessory is returned when adding an accessory whose UUID
	// is already bridged.
	ErrDuplicateAccessory = errors.New("accessory with this UUID is already bridged")

	// ErrNoServices is returned when an accessory record has an empty
	// service set.
	ErrNoServices = errors.New("accessory has no services")

	// ErrAlreadyPublished is returned when publishing a bridge twice.
	ErrAlreadyPublished = errors.New("bridge is already published")

	// ErrTornDown is returned when operating on a bridge after teardown.
	ErrTornDown = errors.New("bridge has been torn down")
)
