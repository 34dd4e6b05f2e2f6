package repository

import (
	"context"

	"swiftcart/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	// ListByConversation returns a page of messages ordered newest first,
	// along with the total message count for the conversation.
	ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)
}
