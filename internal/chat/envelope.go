package chat

import (
	"encoding/json"
	"fmt"
)

// Envelope kinds exchanged with clients.
const (
	TypeCreateRoom  = "create_room"
	TypeJoinRoom    = "join_room"
	TypeSendMessage = "send_message"

	TypeRoomCreated = "room_created"
	TypeRoomJoined  = "room_joined"
	TypeUserJoined  = "user_joined"
	TypeNewMessage  = "new_message"
	TypeUserLeft    = "user_left"
	TypeError       = "error"
)

// Envelope is the JSON frame carried over a connection in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinRoomPayload is the payload of an inbound join_room envelope.
type JoinRoomPayload struct {
	RoomCode string `json:"roomCode" validate:"required"`
	UserName string `json:"userName" validate:"required"`
}

// SendMessagePayload is the payload of an inbound send_message envelope.
// Sender is informational; the session's display name wins when set.
type SendMessagePayload struct {
	Sender  string `json:"sender"`
	Content string `json:"content" validate:"required"`
}

// RoomCreatedPayload answers create_room.
type RoomCreatedPayload struct {
	RoomCode string `json:"roomCode"`
}

// RoomJoinedPayload is sent to a connection whose join succeeded.
type RoomJoinedPayload struct {
	RoomCode string    `json:"roomCode"`
	Messages []Message `json:"messages"`
}

// UserCountPayload carries the live member count for user_joined and user_left.
type UserCountPayload struct {
	UserCount int `json:"userCount"`
}

// ErrorPayload carries a human readable failure reason.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode marshals payload into an envelope of the given kind.
func Encode(kind string, payload any) ([]byte, error) {
	env := Envelope{Type: kind}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", kind, err)
		}
		env.Payload = raw
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", kind, err)
	}
	return data, nil
}

// Decode parses an inbound frame. The payload is left raw for the caller to
// decode according to the envelope type.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// mustEncode is used for envelopes built only from types this package
// controls, which always marshal.
func mustEncode(kind string, payload any) []byte {
	data, err := Encode(kind, payload)
	if err != nil {
		panic(err)
	}
	return data
}
