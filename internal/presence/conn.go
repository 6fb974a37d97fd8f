package presence

//go:generate mockgen -source=conn.go -destination=mocks/mock_conn.go -package=mocks

// Conn is the transport side of one connection as seen by the Hub.
type Conn interface {
	// ID returns the transport-assigned connection identifier.
	ID() string
	// Send queues event for delivery without blocking. It returns false when
	// the connection cannot accept it.
	Send(event Event) bool
	// Close flushes queued events and closes the connection. It must be
	// safe to call more than once.
	Close()
}
