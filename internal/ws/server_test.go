package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hari87gxs/voice-agent-gateway/internal/persona"
	"github.com/hari87gxs/voice-agent-gateway/internal/policy"
	"github.com/hari87gxs/voice-agent-gateway/internal/tools"
	"github.com/hari87gxs/voice-agent-gateway/internal/upstream"
)

func testPersonas(t *testing.T) persona.Set {
	t.Helper()
	doc := []byte(`{
		"A": {"voice_id": "shimmer", "intro_utterance": "hi", "instructions": "hi A", "vad_params": {"silence_duration_ms": 500}, "tools": []},
		"B": {"voice_id": "alloy", "intro_utterance": "hi", "instructions": "hi B", "vad_params": {"silence_duration_ms": 500}, "tools": []}
	}`)
	set, err := persona.Parse(doc)
	require.NoError(t, err)
	return set
}

// fakeUpstreamServer upgrades each connection, reads the initial
// session.update (handing it to updates when updates is non-nil), emits
// session.created, then echoes every later message back verbatim on the
// same connection.
func fakeUpstreamServer(t *testing.T, updates chan<- []byte) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		// session.update from Manager.Open.
		_, update, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if updates != nil {
			updates <- update
		}
		// Immediately emit a session.created event, as a real upstream would.
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"session.created"}`))

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			// echo everything else back verbatim.
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}))
}

func newTestServer(t *testing.T, upstreamURL string) *Server {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(upstreamURL, "http")
	mgr := upstream.NewManager(wsURL, "test-key", "", time.Second)

	registry := tools.NewRegistry()
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	executor := tools.NewExecutor(registry, engine)

	return NewServer(testPersonas(t), mgr, executor, []string{"*"}, zerolog.Nop())
}

func TestHandleWebSocketAnonymousOpensRoleA(t *testing.T) {
	updates := make(chan []byte, 1)
	upstreamSrv := fakeUpstreamServer(t, updates)
	defer upstreamSrv.Close()

	s := newTestServer(t, upstreamSrv.URL)

	e := echo.New()
	e.GET("/ws", s.HandleWebSocket)
	gwSrv := httptest.NewServer(e)
	defer gwSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(gwSrv.URL, "http") + "/ws"
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer client.Close()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "session.created")
	// the role A persona's voice was configured upstream.
	assert.Contains(t, string(<-updates), `"voice":"shimmer"`)

	assert.Eventually(t, func() bool { return s.ActiveSessions() == 1 }, time.Second, 10*time.Millisecond)
}

func TestHandleWebSocketJWTSelectsRoleB(t *testing.T) {
	updates := make(chan []byte, 1)
	upstreamSrv := fakeUpstreamServer(t, updates)
	defer upstreamSrv.Close()

	s := newTestServer(t, upstreamSrv.URL)

	e := echo.New()
	e.GET("/ws", s.HandleWebSocket)
	gwSrv := httptest.NewServer(e)
	defer gwSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(gwSrv.URL, "http") + "/ws?jwt=some-opaque-token"
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer client.Close()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "session.created")
	// the role B persona's voice was configured upstream.
	assert.Contains(t, string(<-updates), `"voice":"alloy"`)
}

func TestHandleWebSocketForwardsBrowserMessageToUpstream(t *testing.T) {
	upstreamSrv := fakeUpstreamServer(t, nil)
	defer upstreamSrv.Close()

	s := newTestServer(t, upstreamSrv.URL)

	e := echo.New()
	e.GET("/ws", s.HandleWebSocket)
	gwSrv := httptest.NewServer(e)
	defer gwSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(gwSrv.URL, "http") + "/ws"
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer client.Close()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = client.ReadMessage() // session.created
	require.NoError(t, err)

	sent := `{"type":"input_audio_buffer.append","audio":"abc"}`
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(sent)))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, echoed, err := client.ReadMessage() // the fake upstream echoes it straight back
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(echoed, &got))
	assert.Equal(t, "input_audio_buffer.append", got["type"])
}

func TestHandleWebSocketUpstreamUnavailableSendsError(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1") // nothing listens here

	e := echo.New()
	e.GET("/ws", s.HandleWebSocket)
	gwSrv := httptest.NewServer(e)
	defer gwSrv.Close()

	wsURL := "ws" + strings.TrimPrefix(gwSrv.URL, "http") + "/ws"
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer client.Close()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "upstream_unavailable")
}
