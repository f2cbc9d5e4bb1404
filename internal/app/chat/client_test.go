package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"mingle/internal/app/presence"
)

// newQueueOnlyClient builds a client without a live connection, enough to
// exercise the outbound queue semantics.
func newQueueOnlyClient(userID string) *Client {
	return NewClient(nil, userID, presence.NewRegistry(), nil)
}

func TestClient_DeliverEnqueues(t *testing.T) {
	req := require.New(t)
	client := newQueueOnlyClient("alice")

	req.NoError(client.Deliver([]byte(`{"type":"online-users-changed"}`)))
	req.Len(client.send, 1)
}

func TestClient_DeliverDropsWhenQueueFull(t *testing.T) {
	req := require.New(t)
	client := newQueueOnlyClient("alice")

	for range sendQueueSize {
		req.NoError(client.Deliver([]byte("x")))
	}

	err := client.Deliver([]byte("overflow"))
	req.Error(err)
	req.Len(client.send, sendQueueSize)
}

func TestClient_DeliverFailsAfterClose(t *testing.T) {
	req := require.New(t)
	client := newQueueOnlyClient("alice")

	client.closeSend()

	req.Error(client.Deliver([]byte("late")))

	// Closing twice is safe.
	client.closeSend()
}

// newConnectedClient upgrades a real websocket pair and returns the
// server-side client plus the peer end for assertions.
func newConnectedClient(t *testing.T, userID string) (*Client, *websocket.Conn) {
	t.Helper()

	serverConns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })

	return NewClient(<-serverConns, userID, presence.NewRegistry(), nil), peer
}

// Kick runs on the admitting connection's goroutine while the superseded
// client's write pump is still draining its queue. Both must be able to write
// at the same time without corrupting frames, and the peer must still see the
// session-replaced close code.
func TestClient_KickDuringActiveWritesClosesCleanly(t *testing.T) {
	req := require.New(t)
	client, peer := newConnectedClient(t, "alice")

	go client.WritePump()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 200 {
			_ = client.Deliver([]byte(`{"type":"message-received"}`))
		}
	}()

	time.Sleep(5 * time.Millisecond)
	client.Kick("You signed in from another device or tab.")
	wg.Wait()

	req.NoError(peer.SetReadDeadline(time.Now().Add(2 * time.Second)))
	for {
		if _, _, readErr := peer.ReadMessage(); readErr != nil {
			var closeErr *websocket.CloseError
			req.ErrorAs(readErr, &closeErr)
			req.Equal(WsCloseCodeSessionReplaced, closeErr.Code)
			return
		}
	}
}
