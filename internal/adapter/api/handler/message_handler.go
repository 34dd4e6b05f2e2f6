package handler

import (
	"github.com/labstack/echo/v4"

	"swiftcart/internal/usecase"
	"swiftcart/pkg/response"
	"swiftcart/pkg/utils"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

type sendMessageRequest struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

// SendMessage persists a message outside the live channel. Used by
// clients whose WebSocket is down; delivery happens on the recipient's
// next history fetch.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.messageUseCase.CreateMessage(c.Request().Context(), userID, conversationID, req.Text, req.ImageURL)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// GetMessages returns one newest-first page of a conversation's history.
func (h *MessageHandler) GetMessages(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	params := utils.GetPaginationParams(c)

	messages, total, hasMore, err := h.messageUseCase.History(c.Request().Context(), userID, conversationID, params.Page, params.PageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paged(c, messages, total, params.Page, params.PageSize, hasMore)
}
