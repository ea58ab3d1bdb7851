//go:build realtime_poll

package realtime

import "sync"

// rwLocker under the cooperative scheduling model degenerates to simple
// exclusive access: read locks are write locks. The type keeps the same
// method set as the threaded build so callers never branch on platform.
type rwLocker struct {
	mu sync.Mutex
}

func newLocker() *rwLocker {
	return &rwLocker{}
}

func (l *rwLocker) Lock()    { l.mu.Lock() }
func (l *rwLocker) Unlock()  { l.mu.Unlock() }
func (l *rwLocker) RLock()   { l.mu.Lock() }
func (l *rwLocker) RUnlock() { l.mu.Unlock() }

// spawn schedules f as a turn of the runtime scheduler.
func spawn(f func()) {
	go f()
}
