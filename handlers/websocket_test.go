package handlers

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
	"venue-manager/models"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialWS(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads frames until one of type want arrives.
func next(t *testing.T, conn *websocket.Conn, want string) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f), "waiting for %s", want)
		if f.Type == want {
			return f
		}
	}
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketChat(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	owner := dialWS(t, srv, env.owner())
	var roster []models.PresencePayload
	require.NoError(t, json.Unmarshal(next(t, owner, models.WSOnlineUsers).Payload, &roster))
	require.Len(t, roster, 1)
	assert.Equal(t, "Administrator", roster[0].FullName)

	worker := dialWS(t, srv, env.worker())
	next(t, worker, models.WSOnlineUsers)

	var joined models.PresencePayload
	require.NoError(t, json.Unmarshal(next(t, owner, models.WSUserOnline).Payload, &joined))
	assert.Equal(t, "Pracownik", joined.FullName)
	assert.True(t, env.broker.IsOnline(joined.UserID))

	require.NoError(t, owner.WriteJSON(models.WSInbound{Type: models.WSInPing}))
	next(t, owner, models.WSPong)

	require.NoError(t, worker.WriteJSON(models.WSInbound{Type: models.WSInMessage, Content: "Brakuje lodu przy barze"}))
	var msg models.ChatMessage
	require.NoError(t, json.Unmarshal(next(t, owner, models.WSNewMessage).Payload, &msg))
	assert.Equal(t, "Brakuje lodu przy barze", msg.Content)
	assert.Equal(t, joined.UserID, msg.SenderID)
	assert.False(t, msg.IsPrivate)
	next(t, worker, models.WSNewMessage)

	history := decode[[]models.ChatMessage](t, env.do(http.MethodGet, "/api/chat/messages", env.owner(), nil))
	require.Len(t, history, 1)
	assert.Equal(t, msg.ID, history[0].ID)

	require.NoError(t, worker.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var problem models.ErrorPayload
	require.NoError(t, json.Unmarshal(next(t, worker, models.WSError).Payload, &problem))
	assert.NotEmpty(t, problem.Message)

	require.NoError(t, worker.Close())
	var left models.PresencePayload
	require.NoError(t, json.Unmarshal(next(t, owner, models.WSUserOffline).Payload, &left))
	assert.Equal(t, joined.UserID, left.UserID)
	assert.Eventually(t, func() bool { return !env.broker.IsOnline(joined.UserID) }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketReconnectReplacesChannel(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	first := dialWS(t, srv, env.manager())
	next(t, first, models.WSOnlineUsers)
	second := dialWS(t, srv, env.manager())
	next(t, second, models.WSOnlineUsers)

	// the replaced socket is closed by the server
	require.NoError(t, first.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}

	require.NoError(t, second.WriteJSON(models.WSInbound{Type: models.WSInPing}))
	next(t, second, models.WSPong)
	assert.Len(t, env.broker.OnlineUsers(), 1)
}
