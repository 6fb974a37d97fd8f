package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HealthText is the body of the liveness probe.
const HealthText = "Presence relay is running!"

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Online   int      `json:"online"`
	Capacity int      `json:"capacity"`
	Names    []string `json:"names"`
}

// WebSocketHandler upgrades the request, registers the connection with the
// hub and starts its pumps.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, s.hub, s.cfg, s.log, r.RemoteAddr)

	// Connect before starting the pumps so no inbound frame reaches the hub
	// ahead of the registration.
	if err := s.hub.Connect(client); err != nil {
		s.log.Warn("Hub unavailable; closing connection", "conn", client.ID(), "error", err)
		_ = conn.Close()
		return
	}
	if err := client.Start(); err != nil {
		s.log.Warn("Hub shutting down; connection not started", "conn", client.ID(), "error", err)
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, HealthText)
}

// StatusHandler reports who is online and how many names remain.
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	online := s.hub.Online()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(StatusResponse{
		Online:   len(online),
		Capacity: s.hub.Capacity(),
		Names:    online,
	})
	if err != nil {
		s.log.Warn("Error writing status response", "error", err)
	}
}

// TestPageHandler serves an HTML page that connects to /ws and shows the
// event stream.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprint(w, testPage)
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>Presence Relay Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { width: 300px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Presence Relay Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        let myName = null;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');

        function addLine(text, color) {
            const line = document.createElement('div');
            line.style.margin = '5px 0';
            line.style.color = color;
            line.textContent = text;
            messagesDiv.appendChild(line);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected as ' + (myName || '...') : 'Disconnected';
            statusDiv.className = connected ? 'status connected' : 'status disconnected';
            messageInput.disabled = !connected;
            sendButton.disabled = !connected;
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function handleEvent(frame) {
            const data = frame.data || {};
            switch (frame.event) {
            case 'welcome':
                myName = data.userName;
                updateStatus(true);
                addLine(data.message + ' You are ' + data.userName, 'gray');
                break;
            case 'userJoined':
                addLine(data.userName + ' joined', 'gray');
                break;
            case 'userLeft':
                addLine(data.userName + ' left', 'gray');
                break;
            case 'connectionDenied':
                addLine(data.message, 'red');
                break;
            case 'serverMessage':
                addLine('[' + data.timestamp + '] ' + data.userId + ': ' + data.message,
                    data.userId === myName ? 'blue' : 'green');
                break;
            }
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = function() { updateStatus(true); };
            ws.onmessage = function(event) { handleEvent(JSON.parse(event.data)); };
            ws.onclose = function() {
                addLine('Connection closed', 'gray');
                myName = null;
                updateStatus(false);
                ws = null;
            };
            ws.onerror = function() { addLine('Connection error', 'red'); };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function sendMessage() {
            const message = messageInput.value.trim();
            if (message && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({event: 'clientMessage', data: {message: message}}));
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
