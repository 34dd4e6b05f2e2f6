package router

import (
	"github.com/labstack/echo/v4"

	"swiftcart/internal/adapter/api/handler"
	"swiftcart/internal/adapter/api/middleware"
)

// SetupConversationRouter sets up conversation and message routes.
func SetupConversationRouter(e *echo.Echo, conversationHandler *handler.ConversationHandler, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1/conversations")
	group.Use(authMiddleware.Authenticate)

	// Conversation directory
	group.POST("", conversationHandler.CreateConversation) // POST /v1/conversations - open (or fetch) a buyer-seller conversation
	group.GET("", conversationHandler.ListConversations)   // GET /v1/conversations - list the caller's conversations

	// Preview and seen state
	group.PUT("/:id/last-message", conversationHandler.UpdateLastMessage) // PUT /v1/conversations/:id/last-message - refresh preview
	group.PUT("/:id/seen", conversationHandler.MarkSeen)                  // PUT /v1/conversations/:id/seen - reset unread counter

	// Message history and fallback send
	group.GET("/:id/messages", messageHandler.GetMessages)  // GET /v1/conversations/:id/messages - newest-first history page
	group.POST("/:id/messages", messageHandler.SendMessage) // POST /v1/conversations/:id/messages - persist without live delivery
}
