package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/llmwerewolf/werewolf-server-go/internal/game"
	"github.com/llmwerewolf/werewolf-server-go/internal/game/roles"
)

type cannedResponder string

func (c cannedResponder) Respond(context.Context, string) (string, error) {
	return string(c), nil
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	engine := game.NewWerewolfEngine(game.DefaultRules(), zaptest.NewLogger(t))
	roster := []game.PlayerSetup{
		{ID: "w1", Name: "Rex", Role: roles.Werewolf, Responder: cannedResponder("PASS")},
		{ID: "v1", Name: "Milo", Role: roles.Villager, Responder: cannedResponder("pass")},
		{ID: "v2", Name: "Pia", Role: roles.Villager, Responder: cannedResponder("pass")},
		{ID: "v3", Name: "Sol", Role: roles.Villager, Responder: cannedResponder("pass")},
	}
	require.NoError(t, engine.Setup(roster, nil))

	srv := New(engine, zaptest.NewLogger(t))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestStateEndpointServesAConcealedSnapshot(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var view game.GameView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Len(t, view.Players, 4)
	for _, p := range view.Players {
		assert.Empty(t, p.Role, "the observer snapshot conceals roles")
		assert.True(t, p.Alive)
	}
}

func readUntilView(t *testing.T, conn *websocket.Conn) outboundMessage {
	t.Helper()
	for i := 0; i < 100; i++ {
		var msg outboundMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "view" {
			return msg
		}
	}
	t.Fatal("no view message arrived")
	return outboundMessage{}
}

func TestWebsocketBacklogAndStep(t *testing.T) {
	_, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// The backlog ends with the current view.
	first := readUntilView(t, conn)
	require.NotNil(t, first.View)
	assert.Equal(t, "SETUP", first.View.Phase)

	require.NoError(t, conn.WriteJSON(inboundMessage{Command: "step"}))
	stepped := readUntilView(t, conn)
	require.NotNil(t, stepped.View)
	assert.Equal(t, "NIGHT", stepped.View.Phase)
	assert.Equal(t, 1, stepped.View.Round)
}
