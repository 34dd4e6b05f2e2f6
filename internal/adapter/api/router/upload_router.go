package router

import (
	"github.com/labstack/echo/v4"

	"swiftcart/internal/adapter/api/handler"
	"swiftcart/internal/adapter/api/middleware"
)

func SetupUploadRouter(e *echo.Echo, uploadHandler *handler.UploadHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1/uploads")
	group.Use(authMiddleware.Authenticate)

	group.POST("/chat-image", uploadHandler.UploadChatImage)
}
