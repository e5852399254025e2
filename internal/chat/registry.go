package chat

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

// DefaultCapacity is the maximum number of members in a room.
const DefaultCapacity = 10

// Registry maps room codes to live rooms. The map is guarded by mu; each
// room has its own lock, so operations on different rooms never contend
// beyond the short registry lookup. Lock order is registry then room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	newCode  func() string
	capacity int
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithCapacity sets the per-room member cap.
func WithCapacity(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithCodeGenerator replaces the random room code generator.
func WithCodeGenerator(gen func() string) Option {
	return func(r *Registry) {
		r.newCode = gen
	}
}

// WithClock replaces the time source used for room creation and message
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an empty registry. Without WithCodeGenerator it draws
// codes of DefaultCodeLength characters.
func NewRegistry(log *slog.Logger, opts ...Option) (*Registry, error) {
	r := &Registry{
		rooms:    make(map[string]*Room),
		capacity: DefaultCapacity,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.newCode == nil {
		gen, err := NewCodeGenerator(DefaultCodeLength)
		if err != nil {
			return nil, err
		}
		r.newCode = gen
	}
	return r, nil
}

// CreateRoom inserts a new empty room under a fresh code and returns the
// code. A code already held by a live room is regenerated.
func (r *Registry) CreateRoom() string {
	for {
		code := NormalizeCode(r.newCode())

		r.mu.Lock()
		if _, taken := r.rooms[code]; taken {
			r.mu.Unlock()
			r.log.Warn("room code collision, regenerating", "code", code)
			continue
		}
		r.rooms[code] = newRoom(code, r.capacity, r.now, r.release, r.log)
		r.mu.Unlock()

		r.log.Info("room created", "code", code)
		return code
	}
}

// Lookup returns the live room for code. Closed rooms that have not been
// removed yet are reported as not found.
func (r *Registry) Lookup(code string) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[NormalizeCode(code)]
	if !ok || room.closed() {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// RemoveIfEmpty drops the room under code if its membership has reached
// zero after a join. It reports whether a room was removed.
func (r *Registry) RemoveIfEmpty(code string) bool {
	code = NormalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok || !room.closed() {
		return false
	}
	delete(r.rooms, code)
	r.log.Info("room removed", "code", code)
	return true
}

// SweepPending removes rooms that were created more than maxAge ago and
// never joined. It returns the number of rooms removed.
func (r *Registry) SweepPending(maxAge time.Duration) int {
	cutoff := r.now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for code, room := range r.rooms {
		if room.expirePending(cutoff) {
			delete(r.rooms, code)
			removed++
		}
	}
	if removed > 0 {
		r.log.Info("pending rooms expired", "count", removed)
	}
	return removed
}

// Len returns the number of rooms currently held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Codes returns the held room codes in sorted order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	codes := lo.Keys(r.rooms)
	r.mu.RUnlock()

	sort.Strings(codes)
	return codes
}

func (r *Registry) release(room *Room) {
	r.RemoveIfEmpty(room.Code())
}
