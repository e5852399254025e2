package chat

import "time"

// Message is a single chat line in a room log. Messages are immutable once
// appended.
type Message struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
