// Package server is the WebSocket transport of the presence relay.
//
// It upgrades HTTP requests, runs the read and write pumps of every
// connection, applies origin and rate-limit policies, and hands connection
// events to a presence.Hub. Configuration, routing and the HTTP server
// lifecycle live here too.
package server
