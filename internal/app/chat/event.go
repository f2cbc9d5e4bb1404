/*
Package chat contains the core logic for direct messaging: routing a send
request to durable storage plus best-effort live delivery, and the
per-connection client lifecycle.

This file defines the websocket event protocol shared with clients.
*/
package chat

import (
	"encoding/json"
	"time"
)

// EventType discriminates the events exchanged over a chat connection.
type EventType string

const (
	// EventSendMessage is the inbound request to send a message to a recipient.
	EventSendMessage EventType = "send-message"

	// EventMessageReceived is the outbound live delivery of a message.
	EventMessageReceived EventType = "message-received"

	// EventOnlineUsersChanged is the outbound full online set, not a delta.
	EventOnlineUsersChanged EventType = "online-users-changed"

	// EventSendAck confirms a send back to its sender with the authoritative id.
	EventSendAck EventType = "send-ack"

	// EventError carries a typed error to the client without closing the connection.
	EventError EventType = "error"
)

// Event is the wire envelope for every websocket frame in both directions.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// TempID echoes a client-chosen id on inbound sends so the ack can be
	// correlated with the optimistic local message.
	TempID string `json:"tempId,omitempty"`
}

// SendMessagePayload is the body of an inbound send-message event.
type SendMessagePayload struct {
	RecipientID   string `json:"recipientId"`
	Text          string `json:"text,omitempty"`
	AttachmentRef string `json:"attachmentRef,omitempty"`
}

// MessageReceivedPayload is the body of an outbound message-received event.
type MessageReceivedPayload struct {
	MessageID     string    `json:"id"`
	SenderID      string    `json:"senderId"`
	Text          string    `json:"text,omitempty"`
	AttachmentRef string    `json:"attachmentRef,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// OnlineUsersPayload is the body of an online-users-changed event.
type OnlineUsersPayload struct {
	UserIDs []string `json:"userIds"`
}

// SendAckPayload is the body of a send-ack event.
type SendAckPayload struct {
	TempID    string    `json:"tempId,omitempty"`
	MessageID string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorPayload is the body of an error event.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// EncodeEvent marshals an event envelope with the given payload.
func EncodeEvent(eventType EventType, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Event{
		Type:    eventType,
		Payload: payloadBytes,
	})
}

// EncodeOnlineUsers builds the online-users-changed event for the presence
// broadcaster, which deals only in encoded payloads.
func EncodeOnlineUsers(online []string) ([]byte, error) {
	return EncodeEvent(EventOnlineUsersChanged, OnlineUsersPayload{UserIDs: online})
}
