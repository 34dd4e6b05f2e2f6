package repository

import (
	"context"

	"swiftcart/internal/domain/entity"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	// GetByMembers looks up the direct conversation for an unordered member pair.
	GetByMembers(ctx context.Context, userID, otherID string) (*entity.Conversation, error)
	// ListByUserID returns all conversations userID belongs to, most recent activity first.
	ListByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error)
	Update(ctx context.Context, conversation *entity.Conversation) error
}
