package lua

import "errors"

// ErrStateClosed is returned when operating on a closed Lua state.
var ErrStateClosed = errors.New("lua state is closed")
