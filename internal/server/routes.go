package server

import "net/http"

// Routes returns the relay's HTTP routes: liveness probe, WebSocket
// endpoint, presence status and the test page.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", HealthHandler)
	mux.HandleFunc("/ws", s.WebSocketHandler)
	mux.HandleFunc("/status", s.StatusHandler)
	mux.HandleFunc("/test", TestPageHandler)
	return mux
}
