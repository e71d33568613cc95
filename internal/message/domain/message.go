package domain

import (
	"errors"
	"time"
)

// MessageListCap is the default number of most recent contact messages kept live
const MessageListCap = 100

var ErrEmptyID = errors.New("message id is required")

// Message is a contact form submission. Messages are created outside this service
// and are read-only here apart from the read flag.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// CountUnread returns how many messages have not been read yet
func CountUnread(messages []Message) int {
	n := 0
	for _, m := range messages {
		if !m.Read {
			n++
		}
	}
	return n
}
