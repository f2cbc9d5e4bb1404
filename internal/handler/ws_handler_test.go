package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"mingle/internal/app/chat"
	"mingle/internal/app/history"
	"mingle/internal/app/presence"
	"mingle/internal/app/storage"
	"mingle/internal/configs"
	"mingle/internal/pkg/auth/jwt"
	"mingle/internal/pkg/errs"
)

const testSecret = "handler-test-secret"

// stubStorage satisfies storage.Service without a real backend.
type stubStorage struct{}

func (stubStorage) PresignUpload(_ context.Context, key, _ string, _ int64, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + key, nil
}

func (stubStorage) PresignDownload(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + key, nil
}

func (stubStorage) Upload(context.Context, string, string, io.Reader) error { return nil }

func (stubStorage) Stat(context.Context, string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{ContentType: "image/png", ContentLength: 42}, nil
}

func (stubStorage) Delete(context.Context, string) error { return nil }

// testEnv is one fully wired server instance backed by in-memory collaborators.
type testEnv struct {
	server      *httptest.Server
	store       *history.MemoryStore
	registry    *presence.Registry
	broadcaster *presence.Broadcaster
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := history.NewMemoryStore()
	registry := presence.NewRegistry()

	broadcaster := presence.NewBroadcaster(registry, chat.EncodeOnlineUsers)
	broadcaster.Run()

	deps := &AppDeps{
		Registry: registry,
		Router:   chat.NewRouter(store, registry),
		History:  store,
		Storage:  stubStorage{},
		Config: &configs.AppConfig{
			Environment: "development",
			JWTSecret:   testSecret,
		},
	}

	server := httptest.NewServer(Router(deps))

	env := &testEnv{
		server:      server,
		store:       store,
		registry:    registry,
		broadcaster: broadcaster,
	}

	t.Cleanup(func() {
		server.Close()
		broadcaster.Shutdown()
	})

	return env
}

func (env *testEnv) wsURL(token string) string {
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	return url
}

func mintToken(t *testing.T, userID string, duration time.Duration) string {
	t.Helper()

	token, err := jwt.GenerateToken(&jwt.Payload{UserID: userID}, testSecret, duration)
	require.NoError(t, err)
	return token
}

func dial(t *testing.T, env *testEnv, userID string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(env.wsURL(mintToken(t, userID, time.Minute)), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForEvent reads frames until one of the wanted type arrives.
func waitForEvent(t *testing.T, conn *websocket.Conn, eventType chat.EventType) chat.Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))

	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s event", eventType)

		var evt chat.Event
		require.NoError(t, json.Unmarshal(raw, &evt))

		if evt.Type == eventType {
			return evt
		}
	}
}

// waitForOnlineSet reads online-users-changed events until the set matches.
func waitForOnlineSet(t *testing.T, conn *websocket.Conn, want []string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))

	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for online set %v", want)

		var evt chat.Event
		require.NoError(t, json.Unmarshal(raw, &evt))
		if evt.Type != chat.EventOnlineUsersChanged {
			continue
		}

		var payload chat.OnlineUsersPayload
		require.NoError(t, json.Unmarshal(evt.Payload, &payload))

		if len(payload.UserIDs) == len(want) {
			match := true
			for i := range want {
				if payload.UserIDs[i] != want[i] {
					match = false
					break
				}
			}
			if match {
				return
			}
		}
	}
}

func sendMessage(t *testing.T, conn *websocket.Conn, payload chat.SendMessagePayload, tempID string) {
	t.Helper()

	payloadBytes, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(chat.Event{
		Type:    chat.EventSendMessage,
		Payload: payloadBytes,
		TempID:  tempID,
	}))
}

func TestWebSocket_RejectsMissingToken(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	conn, resp, err := websocket.DefaultDialer.Dial(env.wsURL(""), nil)
	req.Error(err)
	req.Nil(conn)
	req.NotNil(resp)
	defer resp.Body.Close()
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocket_RejectsExpiredToken(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	conn, resp, err := websocket.DefaultDialer.Dial(env.wsURL(mintToken(t, "alice", -time.Minute)), nil)
	req.Error(err)
	req.Nil(conn)
	req.NotNil(resp)
	defer resp.Body.Close()
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	// A refused handshake never reaches the registry.
	req.Empty(env.registry.Snapshot())
}

func TestWebSocket_MessageRoundTrip(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	alice := dial(t, env, "alice")
	bob := dial(t, env, "bob")

	waitForOnlineSet(t, alice, []string{"alice", "bob"})
	waitForOnlineSet(t, bob, []string{"alice", "bob"})

	sendMessage(t, alice, chat.SendMessagePayload{RecipientID: "bob", Text: "hi"}, "tmp-1")

	// Recipient receives exactly the routed message.
	evt := waitForEvent(t, bob, chat.EventMessageReceived)
	var received chat.MessageReceivedPayload
	req.NoError(json.Unmarshal(evt.Payload, &received))
	req.Equal("alice", received.SenderID)
	req.Equal("hi", received.Text)

	// Sender receives the ack with the authoritative id.
	ackEvt := waitForEvent(t, alice, chat.EventSendAck)
	var ack chat.SendAckPayload
	req.NoError(json.Unmarshal(ackEvt.Payload, &ack))
	req.Equal("tmp-1", ack.TempID)
	req.Equal(received.MessageID, ack.MessageID)

	// Exactly one record persisted.
	stored := env.store.All()
	req.Len(stored, 1)
	req.Equal("alice", stored[0].SenderID)
	req.Equal("bob", stored[0].RecipientID)
	req.Equal("hi", stored[0].Text)
}

func TestWebSocket_OfflineRecipientPersistsWithoutDelivery(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	alice := dial(t, env, "alice")
	waitForOnlineSet(t, alice, []string{"alice"})

	sendMessage(t, alice, chat.SendMessagePayload{RecipientID: "carol", Text: "yo"}, "tmp-1")

	// The ack confirms the send succeeded even though carol is offline.
	waitForEvent(t, alice, chat.EventSendAck)

	stored := env.store.All()
	req.Len(stored, 1)
	req.Equal("carol", stored[0].RecipientID)
}

func TestWebSocket_SecondSessionReplacesFirst(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	first := dial(t, env, "alice")
	waitForOnlineSet(t, first, []string{"alice"})

	second := dial(t, env, "alice")
	waitForOnlineSet(t, second, []string{"alice"})

	// The first connection is closed with the session-replaced code.
	req.NoError(first.SetReadDeadline(time.Now().Add(2 * time.Second)))
	for {
		_, _, err := first.ReadMessage()
		if err != nil {
			req.True(websocket.IsCloseError(err, chat.WsCloseCodeSessionReplaced),
				"expected close code %d, got %v", chat.WsCloseCodeSessionReplaced, err)

			var closeErr *websocket.CloseError
			req.ErrorAs(err, &closeErr)
			req.Equal(errs.NewError(errs.ErrSessionReplaced).Message, closeErr.Text)
			break
		}
	}

	// The identity stays online exactly once, on the newer session.
	req.Equal([]string{"alice"}, env.registry.Snapshot())
}

func TestWebSocket_DisconnectConvergesPresence(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	alice := dial(t, env, "alice")
	bob := dial(t, env, "bob")

	waitForOnlineSet(t, bob, []string{"alice", "bob"})

	req.NoError(alice.Close())

	// Remaining clients converge on the online set without alice.
	waitForOnlineSet(t, bob, []string{"bob"})
	req.Eventually(func() bool {
		snapshot := env.registry.Snapshot()
		return len(snapshot) == 1 && snapshot[0] == "bob"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocket_OversizedTextAnswersTypedError(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	alice := dial(t, env, "alice")
	waitForOnlineSet(t, alice, []string{"alice"})

	sendMessage(t, alice, chat.SendMessagePayload{
		RecipientID: "bob",
		Text:        strings.Repeat("a", chat.MaxTextBytes+1),
	}, "tmp-1")

	evt := waitForEvent(t, alice, chat.EventError)
	var errPayload chat.ErrorPayload
	req.NoError(json.Unmarshal(evt.Payload, &errPayload))
	req.NotZero(errPayload.Code)

	req.Empty(env.store.All())
}
