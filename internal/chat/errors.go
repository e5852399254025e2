package chat

import "errors"

var (
	// ErrRoomNotFound is returned when a code does not name a live room,
	// including rooms whose membership has already dropped to zero.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomFull is returned when a join would exceed the room capacity.
	ErrRoomFull = errors.New("room is full")
	// ErrEmptyContent is returned when a message has no visible content.
	ErrEmptyContent = errors.New("message content cannot be empty")
	// ErrAlreadyJoined is returned when a session or member is already in a room.
	ErrAlreadyJoined = errors.New("already joined a room")
)
