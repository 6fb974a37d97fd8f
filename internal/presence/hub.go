package presence

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/Tyrowin/presence-relay/internal/names"
)

// ErrHubClosed is returned for commands submitted after Shutdown.
var ErrHubClosed = errors.New("presence: hub closed")

type inbound struct {
	connID  string
	message ClientMessage
}

// Hub is the session registry and broadcaster. Connect, Relay and
// Disconnect hand commands to the Run loop, which applies them one at a
// time. Observers such as Online read under a lock the loop holds while
// mutating.
type Hub struct {
	pool      *names.Pool
	log       *slog.Logger
	now       func() time.Time
	sessions  map[string]*Session
	usedNames map[string]string

	connect    chan Conn
	inbound    chan inbound
	disconnect chan string
	dropped    []*Session

	mutex   sync.RWMutex
	wg      sync.WaitGroup
	wgMutex sync.Mutex
	closing bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option customizes a Hub.
type Option func(*Hub)

// WithClock replaces the wall clock used for relay timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		h.now = now
	}
}

// NewHub creates a Hub that allocates names from pool. Call Run to start it.
func NewHub(pool *names.Pool, log *slog.Logger, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		pool:       pool,
		log:        log,
		now:        time.Now,
		sessions:   make(map[string]*Session),
		usedNames:  make(map[string]string),
		connect:    make(chan Conn),
		inbound:    make(chan inbound),
		disconnect: make(chan string),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Connect submits a new connection. The connection is either admitted with
// a welcome event or denied and closed.
func (h *Hub) Connect(conn Conn) error {
	select {
	case h.connect <- conn:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

// Relay submits a message received on connID for fan-out.
func (h *Hub) Relay(connID string, message ClientMessage) error {
	select {
	case h.inbound <- inbound{connID: connID, message: message}:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

// Disconnect reports that connID is gone. Unknown IDs are ignored.
func (h *Hub) Disconnect(connID string) error {
	select {
	case h.disconnect <- connID:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

// Go runs fn in a goroutine that Shutdown waits for. Once Shutdown has
// started it refuses with ErrHubClosed and fn never runs.
func (h *Hub) Go(fn func()) error {
	h.wgMutex.Lock()
	defer h.wgMutex.Unlock()

	if h.closing {
		return ErrHubClosed
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		fn()
	}()
	return nil
}

// Run processes commands until Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownSessions()
			return

		case conn := <-h.connect:
			if conn == nil {
				h.log.Warn("Received nil connection; skipping")
				continue
			}
			h.handleConnect(conn)

		case msg := <-h.inbound:
			h.handleRelay(msg)

		case connID := <-h.disconnect:
			h.handleDisconnect(connID)
		}

		h.removeFailedSessions()
	}
}

func (h *Hub) handleConnect(conn Conn) {
	name, err := h.pool.Allocate()
	if errors.Is(err, names.ErrExhausted) {
		h.log.Warn("Connection denied: no available names left", "conn", conn.ID())
		conn.Send(connectionDenied())
		conn.Close()
		return
	}

	session := newSession(conn, name)

	h.mutex.Lock()
	if _, exists := h.sessions[session.ID]; exists {
		h.mutex.Unlock()
		h.log.Error("Duplicate connection ID; closing connection", "conn", session.ID)
		conn.Close()
		return
	}
	h.pool.Reserve(name)
	h.sessions[session.ID] = session
	h.usedNames[name] = session.ID
	session.State = StateActive
	online := len(h.sessions)
	h.mutex.Unlock()

	h.log.Info("Session registered", "conn", session.ID, "name", name, "online", online)

	h.sendTo(session, welcome(name))
	h.fanOut(userJoined(name), session)
}

func (h *Hub) handleRelay(msg inbound) {
	session, ok := h.session(msg.connID)
	if !ok {
		h.log.Debug("Message from unknown connection dropped", "conn", msg.connID)
		return
	}
	if msg.message.Message == nil {
		h.log.Debug("Message without text dropped", "conn", msg.connID, "name", session.Name)
		return
	}

	timestamp := h.now().UTC().Format(TimestampLayout)
	h.log.Debug("Relaying message", "name", session.Name)
	h.fanOut(serverMessage(session.Name, *msg.message.Message, timestamp), nil)
}

func (h *Hub) handleDisconnect(connID string) {
	session, ok := h.deregister(connID)
	if !ok {
		return
	}

	session.conn.Close()
	h.log.Info("Session closed", "conn", session.ID, "name", session.Name, "online", h.Count())
	h.fanOut(userLeft(session.Name), nil)
}

// deregister removes connID from both maps and returns its name to the pool.
func (h *Hub) deregister(connID string) (*Session, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	session, ok := h.sessions[connID]
	if !ok {
		return nil, false
	}
	delete(h.sessions, connID)
	delete(h.usedNames, session.Name)
	h.pool.Release(session.Name)
	session.State = StateClosed
	return session, true
}

func (h *Hub) session(connID string) (*Session, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	session, ok := h.sessions[connID]
	return session, ok
}

// getSessionSnapshot returns the active sessions at this instant.
func (h *Hub) getSessionSnapshot() []*Session {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return lo.Values(h.sessions)
}

// fanOut sends event to every active session except exclude, which may be nil.
func (h *Hub) fanOut(event Event, exclude *Session) {
	for _, session := range h.getSessionSnapshot() {
		if session == exclude {
			continue
		}
		h.sendTo(session, event)
	}
}

func (h *Hub) sendTo(session *Session, event Event) {
	if session.State != StateActive {
		return
	}
	if !session.conn.Send(event) {
		h.log.Warn("Send queue full; dropping session", "conn", session.ID, "name", session.Name, "event", event.Name)
		h.dropped = append(h.dropped, session)
	}
}

// removeFailedSessions runs the disconnect path for sessions that rejected an
// event. Their userLeft fan-out can reject more sessions, so it repeats.
func (h *Hub) removeFailedSessions() {
	for len(h.dropped) > 0 {
		failed := h.dropped
		h.dropped = nil
		for _, session := range failed {
			h.handleDisconnect(session.ID)
		}
	}
}

// shutdownSessions closes every connection and clears the registry.
func (h *Hub) shutdownSessions() {
	h.log.Info("Shutting down all sessions...")

	h.mutex.Lock()
	sessions := lo.Values(h.sessions)
	for _, session := range sessions {
		h.pool.Release(session.Name)
		session.State = StateClosed
	}
	clear(h.sessions)
	clear(h.usedNames)
	h.mutex.Unlock()

	for _, session := range sessions {
		session.conn.Close()
	}

	h.log.Info("Closed sessions", "count", len(sessions))
}

// Shutdown stops the Run loop, closes every connection and waits for the
// goroutines started with Go, up to timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	// No Add may follow once Wait can be running.
	h.wgMutex.Lock()
	h.closing = true
	h.wgMutex.Unlock()

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}

// Online returns the names of active sessions, sorted.
func (h *Hub) Online() []string {
	h.mutex.RLock()
	online := lo.Keys(h.usedNames)
	h.mutex.RUnlock()

	slices.Sort(online)
	return online
}

// Count returns the number of active sessions.
func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.sessions)
}

// Capacity is the maximum number of concurrent sessions.
func (h *Hub) Capacity() int {
	return h.pool.Size()
}

// Lookup returns the display name bound to connID.
func (h *Hub) Lookup(connID string) (string, bool) {
	session, ok := h.session(connID)
	if !ok {
		return "", false
	}
	return session.Name, true
}

// NameOwner returns the connection ID holding name.
func (h *Hub) NameOwner(name string) (string, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	connID, ok := h.usedNames[name]
	return connID, ok
}
