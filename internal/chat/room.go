package chat

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

type roomState int

const (
	// statePending is a freshly created room that has not seen a join yet.
	statePending roomState = iota
	stateActive
	// stateClosed is terminal. A closed room never accepts members again.
	stateClosed
)

// JoinResult describes a successful join.
type JoinResult struct {
	Code      string
	Messages  []Message
	UserCount int
}

// LeaveResult describes the outcome of a leave. Left is false when the
// member was not in the room, in which case nothing was broadcast.
type LeaveResult struct {
	Left      bool
	UserCount int
	Closed    bool
}

// Room is a bounded set of members sharing a message log. All state is
// guarded by mu; outbound envelopes are enqueued on members while mu is held
// so every member observes the same order. Member.Send never blocks, so the
// critical section stays short.
type Room struct {
	code      string
	capacity  int
	createdAt time.Time
	now       func() time.Time
	onEmpty   func(*Room)
	log       *slog.Logger

	mu        sync.Mutex
	state     roomState
	members   map[string]Member
	messages  []Message
	lastStamp time.Time
}

func newRoom(code string, capacity int, now func() time.Time, onEmpty func(*Room), log *slog.Logger) *Room {
	return &Room{
		code:      code,
		capacity:  capacity,
		createdAt: now(),
		now:       now,
		onEmpty:   onEmpty,
		log:       log.With("room", code),
		state:     statePending,
		members:   make(map[string]Member),
	}
}

// Code returns the room code.
func (r *Room) Code() string {
	return r.code
}

// Len returns the current member count.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Messages returns a copy of the message log.
func (r *Room) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.historyLocked()
}

// Join adds m to the room. The joiner receives room_joined with the history
// snapshot; every other member receives user_joined with the new count.
func (r *Room) Join(m Member, displayName string) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == stateClosed {
		return JoinResult{}, ErrRoomNotFound
	}
	if _, ok := r.members[m.ID()]; ok {
		return JoinResult{}, ErrAlreadyJoined
	}
	if len(r.members) >= r.capacity {
		return JoinResult{}, ErrRoomFull
	}

	r.members[m.ID()] = m
	r.state = stateActive

	result := JoinResult{
		Code:      r.code,
		Messages:  r.historyLocked(),
		UserCount: len(r.members),
	}

	if !m.Send(mustEncode(TypeRoomJoined, RoomJoinedPayload{RoomCode: r.code, Messages: result.Messages})) {
		r.log.Warn("room_joined not delivered", "member", m.ID())
	}
	r.broadcastLocked(mustEncode(TypeUserJoined, UserCountPayload{UserCount: result.UserCount}), m.ID())

	r.log.Info("member joined", "member", m.ID(), "name", displayName, "count", result.UserCount)
	return result, nil
}

// Leave removes m from the room. Leaving twice is a no-op. When the last
// member leaves the room closes and the registry is told to drop it.
func (r *Room) Leave(m Member) LeaveResult {
	r.mu.Lock()
	if _, ok := r.members[m.ID()]; !ok {
		count := len(r.members)
		r.mu.Unlock()
		return LeaveResult{UserCount: count}
	}

	delete(r.members, m.ID())
	result := LeaveResult{Left: true, UserCount: len(r.members)}
	if result.UserCount == 0 {
		r.state = stateClosed
		result.Closed = true
	} else {
		r.broadcastLocked(mustEncode(TypeUserLeft, UserCountPayload{UserCount: result.UserCount}), "")
	}
	r.mu.Unlock()

	r.log.Info("member left", "member", m.ID(), "count", result.UserCount)
	if result.Closed && r.onEmpty != nil {
		r.onEmpty(r)
	}
	return result
}

// Append records a message from sender and sends new_message to every
// member, the sender included.
func (r *Room) Append(sender, content string) (Message, error) {
	if strings.TrimSpace(content) == "" {
		return Message{}, ErrEmptyContent
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == stateClosed {
		return Message{}, ErrRoomNotFound
	}

	stamp := r.now().UTC()
	if stamp.Before(r.lastStamp) {
		stamp = r.lastStamp
	}
	r.lastStamp = stamp

	msg := Message{Sender: sender, Content: content, Timestamp: stamp}
	r.messages = append(r.messages, msg)
	r.broadcastLocked(mustEncode(TypeNewMessage, msg), "")
	return msg, nil
}

// Broadcast enqueues payload on every member that can take it and returns
// how many accepted.
func (r *Room) Broadcast(payload []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.broadcastLocked(payload, "")
}

func (r *Room) broadcastLocked(payload []byte, skipID string) int {
	delivered := 0
	for id, m := range r.members {
		if id == skipID {
			continue
		}
		if m.Send(payload) {
			delivered++
			continue
		}
		r.log.Debug("member not writable, skipped", "member", id)
	}
	return delivered
}

func (r *Room) historyLocked() []Message {
	history := make([]Message, len(r.messages))
	copy(history, r.messages)
	return history
}

func (r *Room) closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateClosed
}

// expirePending closes the room if it was created before cutoff and never
// joined.
func (r *Room) expirePending(cutoff time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != statePending || !r.createdAt.Before(cutoff) {
		return false
	}
	r.state = stateClosed
	return true
}
