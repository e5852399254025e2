// Package server implements the HTTP and WebSocket side of roomchat.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, envelope dispatch, routing, and HTTP handlers.
// Room state itself lives in the chat package; this package adapts
// WebSocket connections to chat.Member and routes their envelopes.
package server
