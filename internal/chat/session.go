package chat

import "sync"

// Session is the room association of one connection. It is set once when a
// join succeeds and cleared once on leave; it is only a routing reference,
// the room itself is mutated through Room methods.
type Session struct {
	mu   sync.Mutex
	room *Room
	name string
}

// Bind associates the session with room under name.
func (s *Session) Bind(room *Room, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room != nil {
		return ErrAlreadyJoined
	}
	s.room = room
	s.name = name
	return nil
}

// Current returns the associated room and display name, if any.
func (s *Session) Current() (*Room, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room, s.name, s.room != nil
}

// Joined reports whether the session has a room association.
func (s *Session) Joined() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room != nil
}

// Reset clears the association and returns the previous room. Only the first
// call after a Bind observes the room.
func (s *Session) Reset() (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.room
	s.room = nil
	s.name = ""
	return room, room != nil
}
