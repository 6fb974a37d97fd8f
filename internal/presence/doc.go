// Package presence implements the session registry and broadcaster at the
// heart of the relay.
//
// A Hub assigns each new connection a display name from a names.Pool, keeps
// the one-to-one mapping between connection IDs and names, and fans
// lifecycle and chat events out to the connected sessions. Every mutation
// and every fan-out runs on the Hub's single Run goroutine.
package presence
