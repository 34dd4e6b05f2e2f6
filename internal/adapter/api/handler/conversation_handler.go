package handler

import (
	"github.com/labstack/echo/v4"

	"swiftcart/internal/usecase"
	"swiftcart/pkg/response"
)

type ConversationHandler struct {
	conversationUseCase *usecase.ConversationUseCase
}

func NewConversationHandler(conversationUseCase *usecase.ConversationUseCase) *ConversationHandler {
	return &ConversationHandler{
		conversationUseCase: conversationUseCase,
	}
}

type createConversationRequest struct {
	SellerID string `json:"seller_id" validate:"required"`
}

type updateLastMessageRequest struct {
	LastMessage   string `json:"last_message" validate:"required"`
	LastMessageID string `json:"last_message_id"`
}

// CreateConversation opens (or returns) the conversation between the
// caller and a seller.
func (h *ConversationHandler) CreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	conversation, err := h.conversationUseCase.CreateOrGet(c.Request().Context(), userID, req.SellerID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, conversation)
}

// ListConversations returns the caller's conversation directory, newest
// activity first.
func (h *ConversationHandler) ListConversations(c echo.Context) error {
	userID := c.Get("uid").(string)

	conversations, err := h.conversationUseCase.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

// UpdateLastMessage refreshes a conversation's preview after a message
// was persisted through the fallback path.
func (h *ConversationHandler) UpdateLastMessage(c echo.Context) error {
	conversationID := c.Param("id")

	var req updateLastMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	conversation, err := h.conversationUseCase.UpdateLastMessage(c.Request().Context(), conversationID, req.LastMessage, req.LastMessageID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

// MarkSeen resets the caller's unread counter for a conversation.
func (h *ConversationHandler) MarkSeen(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.conversationUseCase.MarkSeen(c.Request().Context(), userID, conversationID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"conversation_id": conversationID,
		"unread_count":    0,
	})
}
