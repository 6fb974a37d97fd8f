package presence

// State is where a connection is in its lifecycle.
type State int

const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session binds a live connection to its display name.
type Session struct {
	ID    string
	Name  string
	State State
	conn  Conn
}

func newSession(conn Conn, name string) *Session {
	return &Session{
		ID:    conn.ID(),
		Name:  name,
		State: StateConnecting,
		conn:  conn,
	}
}
