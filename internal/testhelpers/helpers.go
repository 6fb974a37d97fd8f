// Package testhelpers provides shared utilities for exercising the relay
// over real HTTP and WebSocket connections in tests.
package testhelpers

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/presence-relay/internal/presence"
)

// DefaultOrigin is the Origin header sent by ConnectWebSocket.
const DefaultOrigin = "http://localhost:3000"

// WebSocketURL turns an httptest server URL into the relay's ws:// endpoint.
func WebSocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
}

// MakeRequest creates and executes an HTTP request, returning the response.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// ConnectWebSocket dials url with the given Origin header. An empty origin
// sends no header.
func ConnectWebSocket(url, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// MustConnect dials url with DefaultOrigin and fails the test on error.
func MustConnect(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := ConnectWebSocket(url, DefaultOrigin)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendClientMessage sends a clientMessage frame carrying text.
func SendClientMessage(conn *websocket.Conn, text string) error {
	return conn.WriteJSON(map[string]any{
		"event": presence.EventClientMessage,
		"data":  map[string]string{"message": text},
	})
}

// ReceiveEvent reads one event frame, waiting at most timeout.
func ReceiveEvent(conn *websocket.Conn, timeout time.Duration) (presence.Event, error) {
	var event presence.Event
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return event, err
	}
	err := conn.ReadJSON(&event)
	return event, err
}

// ExpectEvent reads the next event and checks its name.
func ExpectEvent(t *testing.T, conn *websocket.Conn, name string) presence.Event {
	t.Helper()
	event, err := ReceiveEvent(conn, 2*time.Second)
	if err != nil {
		t.Fatalf("Expected %s event: %v", name, err)
	}
	if event.Name != name {
		t.Fatalf("Expected %s event, got %s (%+v)", name, event.Name, event.Data)
	}
	return event
}

// ExpectNoEvent fails if an event arrives within timeout. A read that times
// out leaves the gorilla connection unreadable, so call it last on conn.
func ExpectNoEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	if event, err := ReceiveEvent(conn, timeout); err == nil {
		t.Fatalf("Expected no event, got %s (%+v)", event.Name, event.Data)
	}
}

// ExpectClosed waits for the server to close conn.
func ExpectClosed(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || !isTimeout(err) {
				return
			}
			t.Fatalf("Connection was not closed: %v", err)
		}
	}
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
