package channel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IMakeBotsForYou/yomitan/internal/message"
)

// wireMessage decodes any server-to-client frame for assertions.
type wireMessage struct {
	ID     string            `json:"id"`
	Action string            `json:"action"`
	Result json.RawMessage   `json:"result"`
	Error  *message.Envelope `json:"error"`
	Params json.RawMessage   `json:"params"`
}

func dialTestServer(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

// readUntil reads frames until pred matches one, skipping notices such as
// "connected" and "heartbeat".
func readUntil(t *testing.T, conn *websocket.Conn, pred func(wireMessage) bool) wireMessage {
	t.Helper()
	for i := 0; i < 10; i++ {
		var msg wireMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if pred(msg) {
			return msg
		}
	}
	t.Fatal("expected frame not received")
	return wireMessage{}
}

func TestHandleWS_GetURLRoundTrip(t *testing.T) {
	srv := NewServer()
	message.NewRouter(srv, message.WithLocation(func() string {
		return "ws://127.0.0.1:19899/ws"
	}))

	conn := dialTestServer(t, srv)

	connected := readUntil(t, conn, func(m wireMessage) bool { return m.Action == "connected" })
	assert.Equal(t, "connected", connected.Action)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"id":     "req-1",
		"action": "getUrl",
		"params": map[string]any{},
	}))

	reply := readUntil(t, conn, func(m wireMessage) bool { return m.ID == "req-1" })
	require.Nil(t, reply.Error)

	var result message.GetURLResult
	require.NoError(t, json.Unmarshal(reply.Result, &result))
	assert.Equal(t, "ws://127.0.0.1:19899/ws", result.URL)
}

func TestHandleWS_OptionsUpdateNotifiesLocalSubscribers(t *testing.T) {
	srv := NewServer()
	router := message.NewRouter(srv)

	got := make(chan message.OptionsUpdateDetails, 1)
	router.On(message.EventOptionsUpdate, func(details any) {
		if d, ok := details.(message.OptionsUpdateDetails); ok {
			got <- d
		}
	})

	conn := dialTestServer(t, srv)
	readUntil(t, conn, func(m wireMessage) bool { return m.Action == "connected" })

	require.NoError(t, conn.WriteJSON(map[string]any{
		"id":     "req-1",
		"action": "optionsUpdate",
		"params": map[string]any{"source": "popup"},
	}))

	reply := readUntil(t, conn, func(m wireMessage) bool { return m.ID == "req-1" })
	require.Nil(t, reply.Error)

	select {
	case d := <-got:
		assert.Equal(t, "popup", d.Source)
	case <-time.After(2 * time.Second):
		t.Fatal("local optionsUpdate listener was not notified")
	}
}

func TestHandleWS_BroadcastReachesClient(t *testing.T) {
	srv := NewServer()

	conn := dialTestServer(t, srv)
	readUntil(t, conn, func(m wireMessage) bool { return m.Action == "connected" })

	// The read loop registers the client before the connected notice is
	// sent, so broadcasting now is safe.
	srv.Broadcast("optionsUpdate", map[string]string{"source": "file"})

	n := readUntil(t, conn, func(m wireMessage) bool { return m.Action == "optionsUpdate" })
	var params map[string]string
	require.NoError(t, json.Unmarshal(n.Params, &params))
	assert.Equal(t, "file", params["source"])
}

func TestHandleWS_RejectsNonGet(t *testing.T) {
	srv := NewServer()
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	defer ts.Close()

	resp, err := http.Post(ts.URL, "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
