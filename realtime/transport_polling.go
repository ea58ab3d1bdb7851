//go:build realtime_poll

package realtime

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// Maximum message size
const maxMessageSize = 512 * 1024 // 512KB

// newTransport returns the cooperative transport for single-threaded hosts:
// no free-running reader, no frame buffer. Each Receive poll schedules at
// most one outstanding read turn and picks up its result on a later poll.
func newTransport() Transport {
	return &pollTransport{}
}

type frameResult struct {
	text string
	err  error
}

type pollTransport struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	pending   chan frameResult
	inflight  bool
}

func (t *pollTransport) Connect(url string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connected {
		return fmt.Errorf("realtime: transport already connected")
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("realtime: websocket dial failed: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)

	t.conn = conn
	t.connected = true
	t.pending = make(chan frameResult, 1)
	t.inflight = false
	return nil
}

func (t *pollTransport) Send(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil || !t.connected {
		return ErrNotConnected
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("realtime: websocket write failed: %w", err)
	}
	return nil
}

func (t *pollTransport) Receive() (string, bool, error) {
	t.mu.Lock()
	if t.conn == nil || !t.connected {
		t.mu.Unlock()
		return "", false, ErrNotConnected
	}
	if !t.inflight {
		t.inflight = true
		conn, pending := t.conn, t.pending
		go func() {
			for {
				msgType, data, err := conn.ReadMessage()
				if err != nil {
					pending <- frameResult{err: fmt.Errorf("realtime: websocket read failed: %w", err)}
					return
				}
				if msgType != websocket.TextMessage {
					continue
				}
				pending <- frameResult{text: string(data)}
				return
			}
		}()
	}
	pending := t.pending
	t.mu.Unlock()

	select {
	case res := <-pending:
		t.mu.Lock()
		t.inflight = false
		if res.err != nil {
			t.connected = false
		}
		t.mu.Unlock()
		if res.err != nil {
			return "", false, res.err
		}
		return res.text, true, nil
	default:
		return "", false, nil
	}
}

func (t *pollTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.connected = false
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	return nil
}

func (t *pollTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}
