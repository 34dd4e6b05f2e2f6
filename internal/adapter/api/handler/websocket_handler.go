package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"swiftcart/internal/infrastructure/relay"
	"swiftcart/pkg/errors"
)

type WebSocketHandler struct {
	relayServer *relay.Server
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // You should restrict this in production
	},
}

func NewWebSocketHandler(relayServer *relay.Server) *WebSocketHandler {
	return &WebSocketHandler{
		relayServer: relayServer,
	}
}

// HandleWebSocket upgrades the request and hands the socket to the relay.
// Identity is established in-band by the IDENTIFY event, so the route
// carries no auth middleware.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	h.relayServer.HandleConn(ws)
	return nil
}
