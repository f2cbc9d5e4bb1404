/*
Package chat contains the core logic for direct messaging.

This file defines the Router, the sole path from a send request to durable
storage and best-effort live delivery.
*/
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mingle/internal/app/history"
	"mingle/internal/app/presence"
	"mingle/internal/pkg/errs"
	"mingle/internal/pkg/logx"
)

// Router persists outgoing messages and pushes them to recipients that
// currently hold a live connection.
type Router struct {
	store    history.Store
	registry *presence.Registry
	logger   zerolog.Logger
}

// NewRouter wires a Router to the history store and the presence registry.
func NewRouter(store history.Store, registry *presence.Registry) *Router {
	return &Router{
		store:    store,
		registry: registry,
		logger:   logx.Logger().With().Str("component", "MessageRouter").Logger(),
	}
}

// Route assigns an id and timestamp to the message, persists it, and then
// attempts live delivery to the recipient.
//
// Persistence failure aborts the send and is the only error the caller sees.
// Once the store has the message, a missing recipient or a failed push is not
// an error: history is the durability guarantee and the recipient catches up
// on its next conversation fetch.
func (rt *Router) Route(ctx context.Context, senderID, recipientID, text, attachmentRef string) (history.Message, *errs.CustomError) {
	msg := history.Message{
		ID:            uuid.New().String(),
		SenderID:      senderID,
		RecipientID:   recipientID,
		Text:          text,
		AttachmentRef: attachmentRef,
		CreatedAt:     time.Now().UTC(),
	}

	if err := rt.store.Append(ctx, msg); err != nil {
		rt.logger.Error().Err(err).
			Str("message_id", msg.ID).
			Str("sender_id", senderID).
			Msg("Failed to persist message.")
		return history.Message{}, errs.NewError(errs.ErrMessageNotSaved)
	}

	rt.deliverLive(msg)

	return msg, nil
}

// deliverLive pushes the message to the recipient's connection when one is
// registered. Failures are logged and swallowed.
func (rt *Router) deliverLive(msg history.Message) {
	handle, online := rt.registry.Lookup(msg.RecipientID)
	if !online {
		rt.logger.Debug().
			Str("message_id", msg.ID).
			Str("recipient_id", msg.RecipientID).
			Msg("Recipient offline, skipping live delivery.")
		return
	}

	payload, err := EncodeEvent(EventMessageReceived, MessageReceivedPayload{
		MessageID:     msg.ID,
		SenderID:      msg.SenderID,
		Text:          msg.Text,
		AttachmentRef: msg.AttachmentRef,
		CreatedAt:     msg.CreatedAt,
	})
	if err != nil {
		rt.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to encode message-received event.")
		return
	}

	if err := handle.Deliver(payload); err != nil {
		rt.logger.Warn().Err(err).
			Str("message_id", msg.ID).
			Str("recipient_id", msg.RecipientID).
			Msg("Live delivery failed after persistence; history remains authoritative.")
	}
}
