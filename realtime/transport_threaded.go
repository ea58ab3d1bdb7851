//go:build !realtime_poll

package realtime

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/markb/sbrt/internal/log"
)

const (
	// Inbound frame buffer between the reader goroutine and Receive
	frameBufferSize = 256

	// Maximum message size
	maxMessageSize = 512 * 1024 // 512KB
)

// newTransport returns the threaded transport: a background goroutine reads
// frames off the socket into a buffered channel and Receive drains it
// without blocking.
func newTransport() Transport {
	return &wsTransport{}
}

type wsTransport struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	frames    chan string
	connected bool
	readErr   error
}

func (t *wsTransport) Connect(url string) error {
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
	t.readErr = nil
	t.frames = make(chan string, frameBufferSize)
	go t.readPump(conn, t.frames)
	return nil
}

// readPump reads frames until the socket errors or closes, then records the
// error and closes the frame channel so Receive can drain and report it.
func (t *wsTransport) readPump(conn *websocket.Conn, frames chan string) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			t.readErr = fmt.Errorf("realtime: websocket read failed: %w", err)
			t.connected = false
			t.mu.Unlock()
			close(frames)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		select {
		case frames <- string(data):
		default:
			// Buffer full, drop frame
			log.Warn("realtime: frame buffer full, dropping frame", "len", len(data))
		}
	}
}

func (t *wsTransport) Send(text string) error {
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

func (t *wsTransport) Receive() (string, bool, error) {
	t.mu.Lock()
	frames := t.frames
	t.mu.Unlock()

	if frames == nil {
		return "", false, ErrNotConnected
	}

	select {
	case text, ok := <-frames:
		if !ok {
			t.mu.Lock()
			err := t.readErr
			t.mu.Unlock()
			if err == nil {
				err = ErrNotConnected
			}
			return "", false, err
		}
		return text, true, nil
	default:
		return "", false, nil
	}
}

func (t *wsTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.connected = false
	if t.conn != nil {
		// Unblocks the reader goroutine, which closes the frame channel.
		t.conn.Close()
		t.conn = nil
	}
	return nil
}

func (t *wsTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}
