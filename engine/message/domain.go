package message

import (
	"fmt"
	"time"

	"github.com/msgboard/msgboard/engine/dbrouter"
)

const (
	// Model is the routing identity of a message record.
	Model dbrouter.Model = "Msg"
	// Group is the schema unit label used when deciding where migrations run.
	Group = "msgs"
	// DefaultMaxLength bounds message text, counted in runes.
	DefaultMaxLength = 200
	// DefaultPageSize is the number of messages per archive page.
	DefaultPageSize = 10
)

// Message is a single board entry.
type Message struct {
	ID        int64     `json:"id"         db:"id"`
	Text      string    `json:"text"       db:"msg_text"`
	CreatedAt time.Time `json:"created_at" db:"msg_time"`
}

func (m *Message) String() string {
	return fmt.Sprintf("%s (%s)", m.Text, m.CreatedAt.Format(time.RFC3339))
}
