//go:build !realtime_poll

package realtime

import "sync"

// rwLocker is the shared-state lock for the threaded scheduling model: a
// fair multi-reader/single-writer lock. Dispatch holds the read side,
// subscribe/unsubscribe/clear the write side.
type rwLocker struct {
	sync.RWMutex
}

func newLocker() *rwLocker {
	return &rwLocker{}
}

// spawn runs f concurrently as a background task.
func spawn(f func()) {
	go f()
}
