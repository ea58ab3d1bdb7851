package realtime

import (
	"sync"

	"github.com/markb/sbrt/internal/log"
)

// ConnectionPool is a bounded set of reusable Transport slots for callers
// that want several independent sockets instead of the one shared client
// connection. It shares no state with Client.
//
// Slots are index-addressed so giving a connection back is O(1) and never
// grows the pool past its capacity.
type ConnectionPool struct {
	mu      sync.Mutex
	slots   []Transport
	factory TransportFactory
}

// NewConnectionPool creates a pool with the given capacity. A nil factory
// uses the build's default transport.
func NewConnectionPool(capacity int, factory TransportFactory) *ConnectionPool {
	if capacity < 1 {
		capacity = 1
	}
	if factory == nil {
		factory = newTransport
	}
	return &ConnectionPool{
		slots:   make([]Transport, capacity),
		factory: factory,
	}
}

// GetConnection returns a pooled transport. A live, connected transport is
// handed out and removed from its slot; otherwise a fresh transport is
// created into an empty slot. ok is false when every slot is occupied by a
// transport that is not yet reusable; that is backpressure, not an error.
func (p *ConnectionPool) GetConnection() (Transport, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, t := range p.slots {
		if t != nil && t.IsConnected() {
			p.slots[i] = nil
			return t, true
		}
	}
	for i, t := range p.slots {
		if t == nil {
			fresh := p.factory()
			p.slots[i] = fresh
			return fresh, true
		}
	}
	log.Debug("realtime: connection pool exhausted", "capacity", len(p.slots))
	return nil, false
}

// ReturnConnection places a transport back into the first empty slot, or
// closes it when the pool is full.
func (p *ConnectionPool) ReturnConnection(t Transport) {
	if t == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	// Fresh transports keep their slot on handout, so the same transport may
	// already be pooled. Check every slot before filing it somewhere else,
	// otherwise it would occupy two slots and get handed out twice.
	for _, slot := range p.slots {
		if slot == t {
			return
		}
	}
	for i, slot := range p.slots {
		if slot == nil {
			p.slots[i] = t
			return
		}
	}
	t.Close()
}

// Capacity returns the fixed slot count.
func (p *ConnectionPool) Capacity() int {
	return len(p.slots)
}

// Size returns the number of occupied slots.
func (p *ConnectionPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.slots {
		if t != nil {
			n++
		}
	}
	return n
}
