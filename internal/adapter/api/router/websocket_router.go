package router

import (
	"github.com/labstack/echo/v4"

	"swiftcart/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up the relay endpoint. No auth middleware:
// identity is bound in-band by the IDENTIFY event.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
