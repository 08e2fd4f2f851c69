package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptcast/promptcast/internal/config"
	"github.com/promptcast/promptcast/internal/protocol"
	"github.com/promptcast/promptcast/internal/relay"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Mode:       "release",
		ReadLimit:  32768,
		PingPeriod: 54 * time.Second,
	}
	ctrl := NewController(relay.NewEngine(), cfg)

	r := gin.New()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r.GET("/api/ws/sync", func(c *gin.Context) {
		ctrl.HandleSync(ctx, c)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/sync"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func sendJSON(t *testing.T, ws *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, b))
}

// readUntil drains frames until one of the wanted type arrives. Frames
// on a single connection are FIFO, so this never skips a later answer.
func readUntil(t *testing.T, ws *websocket.Conn, typ string) []byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, ws.SetReadDeadline(deadline))
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)
		got, err := protocol.PeekType(data)
		require.NoError(t, err)
		if got == typ {
			return data
		}
	}
}

func readStatusMatching(t *testing.T, ws *websocket.Conn, want protocol.Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		data := readUntil(t, ws, protocol.TypeStatus)
		var s protocol.Status
		require.NoError(t, json.Unmarshal(data, &s))
		if s.ConnectedPrompter == want.ConnectedPrompter && s.ConnectedRemote == want.ConnectedRemote {
			return
		}
		require.True(t, time.Now().Before(deadline), "status %+v never arrived", want)
	}
}

func TestSync_PingPong(t *testing.T) {
	srv := newTestServer(t)
	ws := dial(t, srv)

	sendJSON(t, ws, protocol.Envelope{Type: protocol.TypePing})
	readUntil(t, ws, protocol.TypePong)
}

func TestSync_EndToEnd(t *testing.T) {
	srv := newTestServer(t)

	prompter := dial(t, srv)
	sendJSON(t, prompter, protocol.Join{Type: protocol.TypeJoin, SessionID: "s1", Role: "prompter"})
	readStatusMatching(t, prompter, protocol.Status{ConnectedPrompter: true})

	remote := dial(t, srv)
	sendJSON(t, remote, protocol.Join{Type: protocol.TypeJoin, SessionID: "s1", Role: "remote"})
	readStatusMatching(t, remote, protocol.Status{ConnectedPrompter: true, ConnectedRemote: true})
	readStatusMatching(t, prompter, protocol.Status{ConnectedPrompter: true, ConnectedRemote: true})

	cmd := []byte(`{"type":"command","command":{"type":"PLAY"}}`)
	require.NoError(t, remote.WriteMessage(websocket.TextMessage, cmd))
	got := readUntil(t, prompter, protocol.TypeCommand)
	assert.JSONEq(t, string(cmd), string(got))

	state := []byte(`{"type":"state:update","sessionId":"s1","isPlaying":true,"speed":40}`)
	require.NoError(t, prompter.WriteMessage(websocket.TextMessage, state))
	got = readUntil(t, remote, protocol.TypeStateUpdate)
	assert.JSONEq(t, string(state), string(got))

	// A late remote catches up from the cache without asking.
	late := dial(t, srv)
	sendJSON(t, late, protocol.Join{Type: protocol.TypeJoin, SessionID: "s1", Role: "remote"})
	got = readUntil(t, late, protocol.TypeStateUpdate)
	assert.JSONEq(t, string(state), string(got))
}

func TestSync_DisconnectBroadcastsStatus(t *testing.T) {
	srv := newTestServer(t)

	prompter := dial(t, srv)
	sendJSON(t, prompter, protocol.Join{Type: protocol.TypeJoin, SessionID: "s1", Role: "prompter"})
	remote := dial(t, srv)
	sendJSON(t, remote, protocol.Join{Type: protocol.TypeJoin, SessionID: "s1", Role: "remote"})
	readStatusMatching(t, prompter, protocol.Status{ConnectedPrompter: true, ConnectedRemote: true})

	require.NoError(t, remote.Close())

	readStatusMatching(t, prompter, protocol.Status{ConnectedPrompter: true, ConnectedRemote: false})
}

func TestSync_MalformedFramesIgnored(t *testing.T) {
	srv := newTestServer(t)
	ws := dial(t, srv)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"mystery"}`)))

	// The connection stays healthy afterwards.
	sendJSON(t, ws, protocol.Envelope{Type: protocol.TypePing})
	readUntil(t, ws, protocol.TypePong)
}
