package chat

// Member is a room participant as seen by the core. Send must not block:
// it enqueues payload for delivery and reports false when the member cannot
// currently accept writes, in which case the payload is dropped for it.
//
//go:generate mockgen -destination=mocks/mock_member.go -package=mocks . Member
type Member interface {
	ID() string
	Send(payload []byte) bool
}
