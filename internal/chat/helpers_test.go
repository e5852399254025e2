package chat_test

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// recorder is a Member that keeps every frame it accepts.
type recorder struct {
	id string

	mu      sync.Mutex
	frames  [][]byte
	blocked bool
}

func newRecorder(id string) *recorder {
	return &recorder{id: id}
}

func (r *recorder) ID() string { return r.id }

func (r *recorder) Send(payload []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.blocked {
		return false
	}
	r.frames = append(r.frames, payload)
	return true
}

func (r *recorder) block() {
	r.mu.Lock()
	r.blocked = true
	r.mu.Unlock()
}

func (r *recorder) envelopes(t *testing.T) []chat.Envelope {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]chat.Envelope, 0, len(r.frames))
	for _, f := range r.frames {
		env, err := chat.Decode(f)
		require.NoError(t, err)
		out = append(out, env)
	}
	return out
}

func (r *recorder) ofType(t *testing.T, kind string) []chat.Envelope {
	t.Helper()
	var out []chat.Envelope
	for _, env := range r.envelopes(t) {
		if env.Type == kind {
			out = append(out, env)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}

func payloadOf[T any](t *testing.T, env chat.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	return v
}

// sequence returns a generator yielding codes in order, then repeating the last.
func sequence(codes ...string) func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code
	}
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newRegistry(t *testing.T, opts ...chat.Option) *chat.Registry {
	t.Helper()
	registry, err := chat.NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug), opts...)
	require.NoError(t, err)
	return registry
}

func newRoom(t *testing.T, opts ...chat.Option) (*chat.Registry, *chat.Room) {
	t.Helper()
	registry := newRegistry(t, opts...)
	room, err := registry.Lookup(registry.CreateRoom())
	require.NoError(t, err)
	return registry, room
}
