package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"whereat-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readWS(t *testing.T, conn *websocket.Conn) services.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg services.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocket(t *testing.T) {
	s := newTestServer(t, false, nil)
	srv := httptest.NewServer(s.router)
	defer srv.Close()
	alice := s.login(t, "+911111111111")
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base+"?token=garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"?token="+alice.Token, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "connected", readWS(t, conn).Type)

	require.NoError(t, conn.WriteJSON(services.WSMessage{Type: "ping"}))
	pong := readWS(t, conn)
	assert.Equal(t, "pong", pong.Type)
	assert.NotZero(t, pong.Timestamp)

	require.NoError(t, conn.WriteJSON(services.WSMessage{Type: "dance"}))
	assert.Equal(t, "Unknown message type", readWS(t, conn).Message)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	assert.Equal(t, "Invalid message format", readWS(t, conn).Message)
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	anyOrigin := originChecker(nil)
	assert.True(t, anyOrigin(req("https://evil.example")))

	wildcard := originChecker([]string{"https://app.whereat.in", "*"})
	assert.True(t, wildcard(req("https://evil.example")))

	strict := originChecker([]string{"https://app.whereat.in"})
	assert.True(t, strict(req("https://app.whereat.in")))
	assert.True(t, strict(req("")))
	assert.False(t, strict(req("https://evil.example")))
}
