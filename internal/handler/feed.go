package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/kyiku/caritas-study-back/internal/notify"
)

// PoolFeedHandler upgrades /ws/pool to a websocket subscribed to pool
// update events.
type PoolFeedHandler struct {
	hub      *notify.Hub
	upgrader websocket.Upgrader
}

// NewPoolFeedHandler creates a new PoolFeedHandler. Browser connections
// are accepted only from allowedOrigins ("*" allows any); requests
// without an Origin header are always accepted.
func NewPoolFeedHandler(hub *notify.Hub, allowedOrigins []string) *PoolFeedHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &PoolFeedHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Connect handles the WebSocket upgrade and blocks until the client leaves.
func (h *PoolFeedHandler) Connect(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return nil
	}

	h.hub.Serve(conn)
	return nil
}
