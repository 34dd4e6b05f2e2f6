package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"swiftcart/internal/infrastructure/relay"
)

type HealthHandler struct {
	relayServer *relay.Server
}

func NewHealthHandler(relayServer *relay.Server) *HealthHandler {
	return &HealthHandler{
		relayServer: relayServer,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "Server is running",
		"online": h.relayServer.Registry().Len(),
		"time":   time.Now().Format(time.RFC3339),
	})
}
