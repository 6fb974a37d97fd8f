package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/presence-relay/internal/presence"
)

const (
	pongWait     = 60 * time.Second
	pingPeriod   = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Client is one WebSocket connection. It implements presence.Conn: the hub
// queues events with Send and the write pump delivers them.
type Client struct {
	id             string
	conn           *websocket.Conn
	send           chan []byte
	hub            *presence.Hub
	addr           string
	log            *slog.Logger
	maxMessageSize int64
	rateLimiter    *rateLimiter
	rateLimit      RateLimitConfig

	mu     sync.Mutex
	closed bool
}

// NewClient creates a Client with a fresh connection ID. The send channel is
// buffered to SendBufferSize events.
func NewClient(conn *websocket.Conn, hub *presence.Hub, cfg Config, log *slog.Logger, addr string) *Client {
	cfg = cfg.Sanitize()
	if conn != nil {
		conn.SetReadLimit(int64(cfg.MaxMessageSize))
	}
	id := uuid.NewString()

	return &Client{
		id:             id,
		conn:           conn,
		send:           make(chan []byte, cfg.SendBufferSize),
		hub:            hub,
		addr:           addr,
		log:            log.With("conn", id, "addr", addr),
		maxMessageSize: int64(cfg.MaxMessageSize),
		rateLimiter:    newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitRefill),
		rateLimit:      cfg.RateLimit(),
	}
}

// ID returns the connection ID.
func (c *Client) ID() string {
	return c.id
}

// Send encodes event and queues it without blocking. It returns false once
// the client is closed or its queue is full.
func (c *Client) Send(event presence.Event) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		c.log.Error("Error encoding event", "event", event.Name, "error", err)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close stops accepting events. The write pump flushes what is queued, sends
// a close frame and closes the socket.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Start launches the read and write pumps as goroutines tracked by the hub.
// If the hub is shutting down neither pump runs and the socket is closed.
func (c *Client) Start() error {
	if err := c.hub.Go(c.writePump); err != nil {
		c.Close()
		c.closeConnection()
		return err
	}
	if err := c.hub.Go(c.readPump); err != nil {
		// The write pump flushes and closes the socket once send is closed.
		c.Close()
		return err
	}
	return nil
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("Error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warn("Error setting read deadline in pong handler", "error", err)
		}
		return nil
	})
}

// handleReadError logs the read error at the right level. Every read error
// ends the read loop.
func (c *Client) handleReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("Message exceeded maximum size", "limit", c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.log.Info("Client disconnected", "reason", err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Info("Client connection closed", "reason", err)
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.log.Warn("Unexpected WebSocket error", "error", err)
	default:
		c.log.Warn("WebSocket read error", "error", err)
	}
}

// checkRateLimit verifies if the client has exceeded rate limits
// and returns true if the message should be processed
func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.allow() {
		c.log.Warn("Rate limit exceeded; discarding message",
			"burst", c.rateLimit.Burst, "interval", c.rateLimit.RefillInterval)
		return false
	}
	return true
}

// processMessage decodes an inbound frame and relays chat messages to the
// hub. It returns false for frames that were dropped.
func (c *Client) processMessage(rawMessage []byte) bool {
	var frame inboundFrame
	if err := json.Unmarshal(rawMessage, &frame); err != nil {
		c.log.Warn("Invalid frame", "error", err)
		return false
	}

	if frame.Event != presence.EventClientMessage {
		c.log.Warn("Unknown event", "event", frame.Event)
		return false
	}

	var msg presence.ClientMessage
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			c.log.Warn("Invalid message payload", "error", err)
			return false
		}
	}

	if err := c.hub.Relay(c.id, msg); err != nil {
		c.log.Debug("Relay rejected", "error", err)
		return false
	}
	return true
}

func (c *Client) readPump() {
	defer func() {
		if err := c.hub.Disconnect(c.id); err != nil {
			c.log.Debug("Disconnect not delivered", "error", err)
		}
		c.Close()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Warn("Error closing connection in readPump", "error", err)
		}
	}()

	c.setupReadConnection()

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		if !c.checkRateLimit() {
			continue
		}

		c.processMessage(rawMessage)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("Error closing connection in writePump", "error", err)
	}
}

// handleMessage processes outgoing messages and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		c.log.Warn("Error setting write deadline", "error", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	return c.writeTextMessage(message)
}

// writeCloseMessage sends a close frame once the hub has closed the client.
func (c *Client) writeCloseMessage() bool {
	err := c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil && !isExpectedCloseError(err) {
		c.log.Warn("Error writing close message", "error", err)
	}
	return false
}

// writeTextMessage writes one event per frame so each frame is a complete
// JSON document.
func (c *Client) writeTextMessage(message []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.log.Warn("Error writing message", "error", err)
		return false
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		c.log.Warn("Error setting write deadline for ping", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.log.Warn("Error writing ping message", "error", err)
		return false
	}
	return true
}
