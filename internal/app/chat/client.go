/*
Package chat contains the core logic for direct messaging.

This file defines the Client struct, representing one active websocket
connection. It owns the connection's read and write loops, the bounded
outbound queue, and the cleanup contract that evicts the connection from the
presence registry on every exit path.
*/
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"mingle/internal/app/presence"
	"mingle/internal/pkg/errs"
	"mingle/internal/pkg/logx"
)

const (
	// timeout for writing to the websocket connection.
	writeWait = 10 * time.Second

	// maximum time the server waits for a Pong from the client.
	pongWait = 60 * time.Second

	// frequency of server Ping messages.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame.
	maxMessageSize = 8192

	// MaxTextBytes is the maximum allowed size of a message body.
	MaxTextBytes = 5000

	// sendQueueSize bounds the per-connection outbound queue.
	sendQueueSize = 256

	// routeTimeout bounds how long a single send may wait on persistence.
	routeTimeout = 5 * time.Second

	// WsCloseCodeSessionReplaced is the custom close code (4000-4999 range)
	// telling the client its session was replaced by a newer connection.
	WsCloseCodeSessionReplaced = 4001
)

// Client is one live websocket connection bound to a verified identity.
// It implements presence.Handle; the registry holds it as the connection
// handle for its identity while the connection is live.
type Client struct {
	// underlying websocket connection.
	conn *websocket.Conn

	// userID is the identity asserted at handshake time, immutable afterwards.
	userID string

	registry *presence.Registry
	router   *Router

	// send is the bounded outbound queue. Enqueueing never blocks; a full
	// queue drops the event instead of stalling the producer.
	send chan []byte

	// mu guards closed, which makes closing the send queue race-free against
	// concurrent Deliver calls.
	mu     sync.Mutex
	closed bool

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection. The caller admits
// it to the registry and starts the pumps.
func NewClient(conn *websocket.Conn, userID string, registry *presence.Registry, router *Router) *Client {
	clientLogger := logx.Logger().With().
		Str("component", "Client").
		Str("user_id", userID).
		Logger()

	return &Client{
		conn:     conn,
		userID:   userID,
		registry: registry,
		router:   router,
		send:     make(chan []byte, sendQueueSize),
		logger:   clientLogger,
	}
}

// UserID returns the identity this connection is bound to.
func (c *Client) UserID() string {
	return c.userID
}

// Deliver enqueues an encoded event for the client. It implements
// presence.Handle and never blocks: when the queue is full or the connection
// is closing, the event is dropped and an error returned.
func (c *Client) Deliver(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("connection for %s is closed", c.userID)
	}

	select {
	case c.send <- payload:
		return nil
	default:
		return fmt.Errorf("send queue full for %s", c.userID)
	}
}

// Kick closes the connection with the session-replaced close code. Called by
// the websocket handler when a newer connection for the same identity is
// admitted; the registry never calls it.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionReplaced).
		Str("reason", reason).
		Msg("Closing superseded connection.")

	closeMessage := websocket.FormatCloseMessage(WsCloseCodeSessionReplaced, reason)

	// Kick runs on the admitting connection's goroutine while this client's
	// WritePump may be mid-write. WriteControl is the one write that gorilla
	// allows concurrently with other writes.
	if err := c.conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait)); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to send session-replaced close frame.")
	}

	c.closeSend()
}

// closeSend marks the client closed and closes the send queue exactly once,
// which terminates the write pump.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads inbound frames until the connection dies, then runs the
// cleanup path. It must run on the connection's own goroutine.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		c.processInboundEvent(messageBytes)
	}
}

// cleanupOnDisconnect runs on every ReadPump exit path. Eviction uses
// compare-and-remove: if a newer session already replaced this one, the
// registry is left alone and only the local resources are released.
func (c *Client) cleanupOnDisconnect() {
	if c.registry.Evict(c.userID, c) {
		c.logger.Info().Msg("Connection evicted from presence registry.")
	} else {
		c.logger.Info().Msg("Stale connection closed; a newer session keeps the registry entry.")
	}

	c.closeSend()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close on cleanup")
	}
}

// processInboundEvent parses one inbound frame and dispatches it by type.
func (c *Client) processInboundEvent(messageBytes []byte) {
	var inbound Event

	if err := json.Unmarshal(messageBytes, &inbound); err != nil {
		c.logger.Warn().Err(err).
			Bytes("message_bytes", messageBytes).
			Msg("Client sent invalid JSON")
		return
	}

	switch inbound.Type {
	case EventSendMessage:
		c.handleSendMessage(inbound.Payload, inbound.TempID)

	default:
		c.logger.Warn().Str("event_type", string(inbound.Type)).Msg("Client sent unsupported event type")
	}
}

// handleSendMessage validates an inbound send request and routes it.
// Validation failures and persistence failures are answered with an error
// event; the connection stays open either way.
func (c *Client) handleSendMessage(payloadBytes json.RawMessage, tempID string) {
	var payload SendMessagePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid send-message payload")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	if payload.RecipientID == "" {
		c.SendError(errs.NewError(errs.ErrRecipientInvalid))
		return
	}

	if len(payload.Text) > MaxTextBytes {
		c.SendError(errs.NewError(errs.ErrMessageTextTooLong))
		return
	}

	if payload.Text == "" && payload.AttachmentRef == "" {
		c.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	if payload.AttachmentRef != "" {
		if customErr := ValidateAttachmentRef(c.userID, payload.AttachmentRef); customErr != nil {
			c.SendError(customErr)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), routeTimeout)
	defer cancel()

	msg, routeErr := c.router.Route(ctx, c.userID, payload.RecipientID, payload.Text, payload.AttachmentRef)
	if routeErr != nil {
		c.SendError(routeErr)
		return
	}

	c.sendAck(tempID, msg.ID, msg.CreatedAt)
}

// sendAck confirms a successful send back to the sender with the
// authoritative message id.
func (c *Client) sendAck(tempID, messageID string, createdAt time.Time) {
	if err := c.sendEvent(EventSendAck, SendAckPayload{
		TempID:    tempID,
		MessageID: messageID,
		CreatedAt: createdAt,
	}); err != nil {
		c.logger.Warn().Err(err).Str("message_id", messageID).Msg("Failed to queue send-ack")
	}
}

// sendEvent encodes and enqueues an outbound event.
func (c *Client) sendEvent(eventType EventType, payload any) error {
	eventBytes, err := EncodeEvent(eventType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Error encoding outbound event")
		return err
	}

	return c.Deliver(eventBytes)
}

// SendError queues a typed error event for the client.
func (c *Client) SendError(err error) {
	var code int
	var message string

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
	} else {
		code = errs.ErrUnknown
		message = "Something went wrong. Please try again."
	}

	if sendErr := c.sendEvent(EventError, ErrorPayload{Code: code, Message: message}); sendErr != nil {
		c.logger.Warn().Err(sendErr).Int("error_code", code).Msg("Failed to queue error event")
	}
}

// WritePump drains the send queue onto the websocket and keeps the heartbeat
// alive. It exits when the queue closes or a write fails, closing the
// connection either way.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one queued event to the websocket. Returns false
// when the pump should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends the heartbeat ping. Returns false on write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
