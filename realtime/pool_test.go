package realtime

import "testing"

func newFakeFactory() (TransportFactory, *[]*fakeTransport) {
	created := &[]*fakeTransport{}
	factory := func() Transport {
		ft := &fakeTransport{}
		*created = append(*created, ft)
		return ft
	}
	return factory, created
}

func TestPoolCapacityFloor(t *testing.T) {
	p := NewConnectionPool(0, nil)
	if p.Capacity() != 1 {
		t.Errorf("capacity = %d, want 1", p.Capacity())
	}
}

func TestPoolCreatesIntoSlot(t *testing.T) {
	factory, created := newFakeFactory()
	p := NewConnectionPool(2, factory)

	tr, ok := p.GetConnection()
	if !ok || tr == nil {
		t.Fatal("expected a fresh transport")
	}
	if len(*created) != 1 {
		t.Fatalf("factory called %d times, want 1", len(*created))
	}
	// Fresh transports occupy their slot until connected and handed back out
	if p.Size() != 1 {
		t.Errorf("size = %d, want 1", p.Size())
	}
}

func TestPoolReusesConnectedTransport(t *testing.T) {
	factory, created := newFakeFactory()
	p := NewConnectionPool(2, factory)

	tr, ok := p.GetConnection()
	if !ok {
		t.Fatal("expected a transport")
	}
	if err := tr.Connect("ws://example"); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	p.ReturnConnection(tr)

	again, ok := p.GetConnection()
	if !ok {
		t.Fatal("expected the pooled transport")
	}
	if again != tr {
		t.Error("connected transport should be reused, not recreated")
	}
	if len(*created) != 1 {
		t.Errorf("factory called %d times, want 1", len(*created))
	}
	// Handed-out connected transports leave their slot
	if p.Size() != 0 {
		t.Errorf("size = %d, want 0", p.Size())
	}
}

func TestPoolExhaustion(t *testing.T) {
	factory, _ := newFakeFactory()
	p := NewConnectionPool(2, factory)

	if _, ok := p.GetConnection(); !ok {
		t.Fatal("first get should succeed")
	}
	if _, ok := p.GetConnection(); !ok {
		t.Fatal("second get should succeed")
	}
	if tr, ok := p.GetConnection(); ok || tr != nil {
		t.Error("third get should report exhaustion, not error")
	}
}

func TestPoolReturnClosesWhenFull(t *testing.T) {
	factory, _ := newFakeFactory()
	p := NewConnectionPool(1, factory)

	if _, ok := p.GetConnection(); !ok {
		t.Fatal("get should succeed")
	}

	extra := &fakeTransport{connected: true}
	p.ReturnConnection(extra)
	if !extra.wasClosed() {
		t.Error("returning to a full pool should close the transport")
	}
}

func TestPoolReturnWhileStillSlotted(t *testing.T) {
	factory, _ := newFakeFactory()
	p := NewConnectionPool(2, factory)

	t1, ok := p.GetConnection()
	if !ok {
		t.Fatal("first get should succeed")
	}
	t2, ok := p.GetConnection()
	if !ok {
		t.Fatal("second get should succeed")
	}
	if err := t1.Connect("ws://example"); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if err := t2.Connect("ws://example"); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	// t1 goes back, gets handed out again, and t2 goes back while still
	// occupying the slot it was created into.
	p.ReturnConnection(t1)
	got, ok := p.GetConnection()
	if !ok || got != t1 {
		t.Fatalf("expected t1 back, got %v", got)
	}
	p.ReturnConnection(t2)

	// t2 must occupy exactly one slot: handing it to two callers would
	// break exclusive ownership.
	a, okA := p.GetConnection()
	b, okB := p.GetConnection()
	if okA && okB && a == b {
		t.Fatal("same transport handed out to two callers")
	}
}

func TestPoolReturnNil(t *testing.T) {
	p := NewConnectionPool(1, nil)
	p.ReturnConnection(nil) // must not panic
	if p.Size() != 0 {
		t.Errorf("size = %d, want 0", p.Size())
	}
}
