package plugin

import "errors"

// Extension runtime errors.
var (
	// ErrNotFound is returned when an extension path cannot be resolved.
	ErrNotFound = errors.New("extension not found")

	// ErrNoEntryPoint is returned when an extension directory has no entry
	// point (init.lua or plugin.lua).
	ErrNoEntryPoint = errors.New("extension has no entry point")

	// ErrAlreadyLoaded is returned when loading an already loaded host.
	ErrAlreadyLoaded = errors.New("extension is already loaded")

	// ErrNotLoaded is returned when using an unloaded host.
	ErrNotLoaded = errors.New("extension is not loaded")

	// ErrConstructorNotFound is returned when no constructor is registered
	// for the requested identifier.
	ErrConstructorNotFound = errors.New("no constructor registered for identifier")

	// ErrBadConstructorResult is returned when a constructor returns
	// something other than a table.
	ErrBadConstructorResult = errors.New("constructor did not return a table")

	// ErrNoServices is returned when an accessory instance yields an empty
	// service set.
	ErrNoServices = errors.New("accessory instance returned no services")
)
