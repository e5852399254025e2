// Package server defines the connection contract the dispatcher works
// against and utility helpers shared by client and hub logic.
package server

import (
	"errors"
	"strings"

	"github.com/Tyrowin/roomchat/internal/chat"
)

// ErrHubClosed is returned when a client is registered after shutdown began.
var ErrHubClosed = errors.New("hub is shut down")

// Connection is the dispatcher's view of one client: a room member that
// owns its session.
type Connection interface {
	chat.Member
	Session() *chat.Session
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
