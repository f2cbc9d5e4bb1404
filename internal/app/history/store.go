/*
Package history is the durable message log behind chat.

The store is the durability source of truth for a send: once Append returns
nil, the message survives regardless of whether live delivery to the recipient
works out. Messages are append-only; nothing in this server mutates or deletes
them after the fact.
*/
package history

import (
	"context"
	"time"
)

// Message is one chat message as persisted. It is created once at send time
// and immutable thereafter.
type Message struct {
	ID            string    `json:"id"`
	SenderID      string    `json:"senderId"`
	RecipientID   string    `json:"recipientId"`
	Text          string    `json:"text,omitempty"`
	AttachmentRef string    `json:"attachmentRef,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Store is the history collaborator interface.
type Store interface {
	// Append persists a message. The message id is assigned by the caller
	// before the call; appending the same id twice is a no-op, not an error.
	Append(ctx context.Context, msg Message) error

	// ListBetween returns the conversation between two identities, oldest
	// first, regardless of which side sent each message. limit <= 0 means
	// no limit.
	ListBetween(ctx context.Context, identityA, identityB string, limit int) ([]Message, error)
}
