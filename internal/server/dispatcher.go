package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/go-playground/validator/v10"
)

const (
	msgJoinRejected  = "Room not found or full"
	msgAlreadyJoined = "Already in a room"
)

// Dispatcher decodes inbound envelopes from a connection, checks them
// against the connection's session and drives the registry and rooms.
// Calls for a single connection are expected from one goroutine at a time.
type Dispatcher struct {
	registry *chat.Registry
	validate *validator.Validate
	metrics  *Metrics
	log      *slog.Logger
}

// NewDispatcher creates a Dispatcher over registry.
func NewDispatcher(registry *chat.Registry, metrics *Metrics, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		validate: validator.New(),
		metrics:  metrics,
		log:      log.With("component", "dispatcher"),
	}
}

// Dispatch handles one raw inbound frame. Malformed input is logged and
// dropped without a reply.
func (d *Dispatcher) Dispatch(c Connection, raw []byte) {
	env, err := chat.Decode(raw)
	if err != nil {
		d.malformed(c, err)
		return
	}

	switch env.Type {
	case chat.TypeCreateRoom:
		d.createRoom(c)
	case chat.TypeJoinRoom:
		d.joinRoom(c, env.Payload)
	case chat.TypeSendMessage:
		d.sendMessage(c, env.Payload)
	default:
		d.malformed(c, fmt.Errorf("unknown envelope type %q", env.Type))
	}
}

// Disconnect removes c from its room, if any. Only the first call after a
// successful join has an effect.
func (d *Dispatcher) Disconnect(c Connection) {
	room, ok := c.Session().Reset()
	if !ok {
		return
	}

	result := room.Leave(c)
	d.log.Info("connection left room", "client", c.ID(), "code", room.Code(), "count", result.UserCount, "closed", result.Closed)
}

func (d *Dispatcher) createRoom(c Connection) {
	code := d.registry.CreateRoom()
	d.reply(c, chat.TypeRoomCreated, chat.RoomCreatedPayload{RoomCode: code})
}

func (d *Dispatcher) joinRoom(c Connection, raw json.RawMessage) {
	payload, err := decodePayload[chat.JoinRoomPayload](d.validate, raw)
	if err != nil {
		d.malformed(c, err)
		return
	}

	if c.Session().Joined() {
		d.metrics.joinRejections.WithLabelValues(reasonJoined).Inc()
		d.reply(c, chat.TypeError, chat.ErrorPayload{Message: msgAlreadyJoined})
		return
	}

	room, err := d.registry.Lookup(payload.RoomCode)
	if err == nil {
		_, err = room.Join(c, payload.UserName)
	}
	if err != nil {
		d.rejectJoin(c, payload.RoomCode, err)
		return
	}

	if err := c.Session().Bind(room, payload.UserName); err != nil {
		room.Leave(c)
		d.log.Error("session bind failed after join", "client", c.ID(), "code", room.Code(), "err", err)
		return
	}
}

func (d *Dispatcher) rejectJoin(c Connection, code string, err error) {
	reason := reasonNotFound
	if errors.Is(err, chat.ErrRoomFull) {
		reason = reasonFull
	}
	d.metrics.joinRejections.WithLabelValues(reason).Inc()
	d.log.Info("join rejected", "client", c.ID(), "code", code, "err", err)
	d.reply(c, chat.TypeError, chat.ErrorPayload{Message: msgJoinRejected})
}

func (d *Dispatcher) sendMessage(c Connection, raw json.RawMessage) {
	room, name, ok := c.Session().Current()
	if !ok {
		d.log.Debug("send without room dropped", "client", c.ID())
		return
	}

	payload, err := decodePayload[chat.SendMessagePayload](d.validate, raw)
	if err != nil {
		d.malformed(c, err)
		return
	}

	sender := name
	if sender == "" {
		sender = payload.Sender
	}

	if _, err := room.Append(sender, payload.Content); err != nil {
		d.log.Debug("message dropped", "client", c.ID(), "code", room.Code(), "err", err)
		return
	}
	d.metrics.messages.Inc()
}

func (d *Dispatcher) reply(c Connection, kind string, payload any) {
	data, err := chat.Encode(kind, payload)
	if err != nil {
		d.log.Error("encode reply", "client", c.ID(), "type", kind, "err", err)
		return
	}
	if !c.Send(data) {
		d.log.Debug("reply not delivered", "client", c.ID(), "type", kind)
	}
}

func (d *Dispatcher) malformed(c Connection, err error) {
	d.metrics.malformed.Inc()
	d.log.Warn("malformed envelope dropped", "client", c.ID(), "err", err)
}

func decodePayload[T any](validate *validator.Validate, raw json.RawMessage) (T, error) {
	var payload T
	if len(raw) == 0 {
		return payload, errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("decode payload: %w", err)
	}
	if err := validate.Struct(payload); err != nil {
		return payload, fmt.Errorf("validate payload: %w", err)
	}
	return payload, nil
}
