package router

import (
	"github.com/labstack/echo/v4"

	"swiftcart/internal/adapter/api/handler"
	"swiftcart/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	conversationHandler *handler.ConversationHandler,
	messageHandler *handler.MessageHandler,
	uploadHandler *handler.UploadHandler,
	wsHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	SetupConversationRouter(e, conversationHandler, messageHandler, authMiddleware)
	SetupUploadRouter(e, uploadHandler, authMiddleware)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e, healthHandler)
}
