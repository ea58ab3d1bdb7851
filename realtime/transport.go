package realtime

// Transport is the minimal socket capability the engine runs on: open a
// connection, send a text frame, poll for a received frame, close. Two
// implementations exist behind this interface, a threaded socket with a
// background reader and a cooperative single-threaded polling socket,
// selected at build time by the realtime_poll tag. Callers never see the
// difference.
type Transport interface {
	// Connect opens the socket. Failure leaves IsConnected() false.
	Connect(url string) error

	// Send writes one text frame. Returns ErrNotConnected when no live
	// socket is present.
	Send(text string) error

	// Receive polls for one text frame. ok is false when no frame is
	// currently available; connection loss is reported as an error.
	Receive() (text string, ok bool, err error)

	// Close shuts the socket down. Safe to call more than once.
	Close() error

	// IsConnected reports whether the socket is live.
	IsConnected() bool
}

// TransportFactory produces fresh transports, used by the Client and the
// ConnectionPool. Tests substitute scripted transports through it.
type TransportFactory func() Transport
