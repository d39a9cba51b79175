package realtime

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/logging"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

// startHub runs a hub behind a test server. Connections identify
// themselves with the user and org query parameters.
func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		_ = hub.ServeWS(w, r, q.Get("user"), q["org"])
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func assertNoMessage(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "expected no message")
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHubRoutesByOrganization(t *testing.T) {
	hub, srv := startHub(t)
	alice := dial(t, srv, "user=alice&org=org-1")
	bob := dial(t, srv, "user=bob&org=org-2")
	waitForClients(t, hub, 2)

	require.NoError(t, hub.Publish(context.Background(), NewEvent(MeetingCreated, "org-1", "", map[string]string{"title": "Q3"})))

	ev := readEvent(t, alice)
	assert.Equal(t, MeetingCreated, ev.Type)
	assert.Equal(t, "org-1", ev.OrganizationID)
	assertNoMessage(t, bob)
}

func TestHubRoutesByUser(t *testing.T) {
	hub, srv := startHub(t)
	alice := dial(t, srv, "user=alice&org=org-1")
	bob := dial(t, srv, "user=bob&org=org-1")
	waitForClients(t, hub, 2)

	require.NoError(t, hub.Publish(context.Background(), NewEvent(NotificationCreated, "org-1", "bob", nil)))

	ev := readEvent(t, bob)
	assert.Equal(t, NotificationCreated, ev.Type)
	assert.Equal(t, "bob", ev.UserID)
	assertNoMessage(t, alice)
}

func TestClientPing(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "user=alice&org=org-1")
	waitForClients(t, hub, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(data))
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "user=alice&org=org-1")
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}

func TestCheckOrigin(t *testing.T) {
	prev := config.Get()
	t.Cleanup(func() { config.Set(prev) })
	cfg := config.Default()
	cfg.CORSAllowedOrigins = []string{"https://app.boardguru.example"}
	config.Set(cfg)

	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "http://api.boardguru.example/realtime", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, checkOrigin(req("")))
	assert.True(t, checkOrigin(req("https://app.boardguru.example")))
	assert.True(t, checkOrigin(req("https://api.boardguru.example")))
	assert.False(t, checkOrigin(req("https://evil.example")))
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub() // not running, so nothing drains the queue

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer*2; i++ {
			_ = hub.Publish(context.Background(), NewEvent(VaultUpdated, "org-1", "", nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
}

func TestMemberRemovedStopsOrganizationEvents(t *testing.T) {
	hub, srv := startHub(t)
	alice := dial(t, srv, "user=alice&org=org-1&org=org-2")
	bob := dial(t, srv, "user=bob&org=org-1")
	waitForClients(t, hub, 2)
	ctx := context.Background()

	require.NoError(t, hub.Publish(ctx, NewEvent(MemberRemoved, "org-1", "alice", nil)))
	ev := readEvent(t, alice)
	assert.Equal(t, MemberRemoved, ev.Type)

	require.NoError(t, hub.Publish(ctx, NewEvent(MeetingCreated, "org-1", "", nil)))
	require.NoError(t, hub.Publish(ctx, NewEvent(VaultUpdated, "org-2", "", nil)))
	assert.Equal(t, MeetingCreated, readEvent(t, bob).Type)

	// alice skips the org-1 event but still follows org-2
	assert.Equal(t, VaultUpdated, readEvent(t, alice).Type)
	assertNoMessage(t, alice)
}

func TestMemberRemovedFromLastOrganizationDisconnects(t *testing.T) {
	hub, srv := startHub(t)
	bob := dial(t, srv, "user=bob&org=org-1")
	waitForClients(t, hub, 1)

	require.NoError(t, hub.Publish(context.Background(), NewEvent(MemberRemoved, "org-1", "bob", nil)))
	assert.Equal(t, MemberRemoved, readEvent(t, bob).Type)
	waitForClients(t, hub, 0)
}

func TestReplyAfterHubClosedClient(t *testing.T) {
	hub := NewHub()
	c := newClient(hub, nil, "alice", []string{"org-1"})
	hub.add(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			c.reply([]byte(`{"type":"pong"}`))
		}
	}()
	hub.remove(c)
	<-done

	assert.True(t, c.closed)
	assert.NotPanics(t, func() { c.reply([]byte(`{"type":"pong"}`)) })
}
