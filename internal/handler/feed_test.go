package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyiku/caritas-study-back/internal/logger"
	"github.com/kyiku/caritas-study-back/internal/notify"
	"github.com/kyiku/caritas-study-back/internal/testutil"
)

func newFeedServer(t *testing.T, hub *notify.Hub, origins []string) string {
	t.Helper()
	e := echo.New()
	e.GET("/ws/pool", NewPoolFeedHandler(hub, origins).Connect)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/pool"
}

func TestPoolFeedHandler_Broadcast(t *testing.T) {
	hub := notify.NewHub(logger.NewNop())
	url := newFeedServer(t, hub, []string{"http://localhost:3000"})

	header := http.Header{}
	header.Set("Origin", "http://localhost:3000")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, testutil.WaitFor(time.Second, 10*time.Millisecond, func() bool {
		return hub.Len() == 1
	}))

	p := newTestPool(t)
	p.SetNotifier(hub)
	_, err = p.InsertMath(mathProblem("m1", "中2", "一次関数", "標準"))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var update notify.PoolUpdate
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, "pool_updated", update.Type)
	assert.Equal(t, "math", update.Subject)
	assert.Equal(t, 1, update.TotalProblems)
}

func TestPoolFeedHandler_PingPong(t *testing.T) {
	hub := notify.NewHub(logger.NewNop())
	url := newFeedServer(t, hub, nil)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg["type"])

	conn.Close()
	assert.NoError(t, testutil.WaitFor(time.Second, 10*time.Millisecond, func() bool {
		return hub.Len() == 0
	}))
}

func TestPoolFeedHandler_Origin(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		wantErr bool
	}{
		{name: "許可されたオリジン", origins: []string{"https://caritas-study-app.vercel.app"}, origin: "https://caritas-study-app.vercel.app"},
		{name: "ワイルドカード", origins: []string{"*"}, origin: "https://example.com"},
		{name: "許可されていないオリジン", origins: []string{"http://localhost:3000"}, origin: "https://evil.example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := notify.NewHub(logger.NewNop())
			url := newFeedServer(t, hub, tt.origins)

			header := http.Header{}
			header.Set("Origin", tt.origin)
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tt.wantErr {
				require.Error(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
				return
			}
			require.NoError(t, err)
			conn.Close()
		})
	}
}
