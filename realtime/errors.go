package realtime

import "errors"

// ErrNotConnected is returned by operations that require a live connection
// when no transport is present or the socket has closed. Operations fail
// fast rather than queue while disconnected.
var ErrNotConnected = errors.New("realtime: not connected")
