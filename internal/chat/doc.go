// Package chat implements the room coordination core of roomchat: the
// registry of live rooms, per-room membership and message log, and the
// outbound envelopes rooms fan out to their members.
//
// The package is transport agnostic. A member is anything that can accept a
// non-blocking enqueue of an encoded envelope; the server package adapts
// WebSocket clients to that contract.
package chat
