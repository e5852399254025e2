package server_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const testOriginURL = "http://localhost:8080"

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

// startTestServer runs a Server behind httptest and returns it with the
// WebSocket URL. The hub is shut down before the listener closes.
func startTestServer(t *testing.T, mutate func(*server.Config)) (*server.Server, *httptest.Server, string) {
	t.Helper()

	cfg := server.NewConfig()
	cfg.AllowedOrigins = []string{testOriginURL}
	if mutate != nil {
		mutate(cfg)
	}

	srv, err := server.New(*cfg, testLogger())
	require.NoError(t, err)

	go srv.Hub().Run()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() {
		_ = srv.Hub().Shutdown(2 * time.Second)
	})

	return srv, ts, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

// connectWebSocket dials url with an allowed Origin header.
func connectWebSocket(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, err := dialWebSocket(url, testOriginURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func dialWebSocket(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, kind string, payload any) {
	t.Helper()

	data, err := chat.Encode(kind, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func readEnvelope(t *testing.T, conn *websocket.Conn) chat.Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	env, err := chat.Decode(data)
	require.NoError(t, err)
	return env
}

// expectNoEnvelope fails if anything arrives on conn within wait.
func expectNoEnvelope(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected frame %s", data)

	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr)
	require.True(t, netErr.Timeout())
}

func decodeInto[T any](t *testing.T, env chat.Envelope) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	return v
}
