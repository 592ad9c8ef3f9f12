package models

import (
	"fmt"
	"strings"
	"time"
)

// Message is one entry of a match conversation.
type Message struct {
	ID            string    `db:"id" json:"id"`
	Seq           int64     `db:"seq" json:"seq"`
	MatchID       string    `db:"match_id" json:"match_id"`
	AuthorGroupID string    `db:"author_group_id" json:"author_group_id"`
	Text          string    `db:"text" json:"text"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Validate checks a decoded message.
func (m Message) Validate() error {
	switch {
	case m.ID == "":
		return fmt.Errorf("%w: message id is empty", ErrInvalidRecord)
	case m.MatchID == "" || m.AuthorGroupID == "":
		return fmt.Errorf("%w: message %s is missing its match or author", ErrInvalidRecord, m.ID)
	case strings.TrimSpace(m.Text) == "":
		return fmt.Errorf("%w: message %s has no text", ErrInvalidRecord, m.ID)
	case m.CreatedAt.IsZero():
		return fmt.Errorf("%w: message %s has no timestamp", ErrInvalidRecord, m.ID)
	}
	return nil
}

// Before reports whether m sorts ahead of other in a conversation.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.Seq < other.Seq
}

// MatchEvent is pushed over websocket connections of a match.
type MatchEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}
