package usecase

import (
	"context"
	"time"

	"swiftcart/internal/domain/entity"
	"swiftcart/internal/domain/repository"
	"swiftcart/internal/infrastructure/relay"
	"swiftcart/pkg/errors"
	"swiftcart/pkg/logger"
)

// MessageUseCase persists messages for both delivery paths: CHAT events
// arriving over the relay and the durable REST fallback. It implements
// relay.ChatService.
type MessageUseCase struct {
	messageRepo      repository.MessageRepository
	conversationRepo repository.ConversationRepository
	conversations    *ConversationUseCase
}

func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	conversationRepo repository.ConversationRepository,
	conversations *ConversationUseCase,
) *MessageUseCase {
	return &MessageUseCase{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		conversations:    conversations,
	}
}

// DeliverChat is the live path: persist the message, refresh the preview
// and bump the recipient's unread counter. The returned count is the
// recipient's unread total after the increment, pushed alongside the
// forwarded message.
func (uc *MessageUseCase) DeliverChat(ctx context.Context, event relay.ChatEvent) (*entity.Message, int, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, event.ConversationID)
	if err != nil {
		return nil, 0, err
	}
	if !conversation.HasMember(event.FromUserID) || !conversation.HasMember(event.ToUserID) {
		return nil, 0, errors.Forbidden("Sender or recipient is not a member of this conversation", nil)
	}

	message := &entity.Message{
		ConversationID: event.ConversationID,
		SenderID:       event.FromUserID,
		Text:           event.Body,
		ImageURL:       event.ImageURL,
		CreatedAt:      time.Now(),
	}
	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, 0, err
	}

	conversation.LastMessage = message.Text
	conversation.LastMessageID = message.ID
	conversation.LastMessageAt = message.CreatedAt
	if conversation.UnreadCount == nil {
		conversation.UnreadCount = make(map[string]int)
	}
	conversation.UnreadCount[event.ToUserID]++

	if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
		// The message itself is durable; a stale preview is repaired by
		// the next write. Still forward.
		logger.Warn("DeliverChat: failed to update conversation %s preview: %v", conversation.ID, err)
	}

	return message, conversation.UnreadCount[event.ToUserID], nil
}

// MarkSeen satisfies relay.ChatService for MARK_AS_SEEN events.
func (uc *MessageUseCase) MarkSeen(ctx context.Context, userID, conversationID string) error {
	return uc.conversations.MarkSeen(ctx, userID, conversationID)
}

// CreateMessage is the fallback path used when no live channel is open.
// It persists the message and refreshes the preview, but neither bumps
// unread counters nor forwards anything; the recipient learns about the
// message through its next history fetch or reconnect.
func (uc *MessageUseCase) CreateMessage(ctx context.Context, senderID, conversationID, text, imageURL string) (*entity.Message, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasMember(senderID) {
		return nil, errors.Forbidden("User is not a member of this conversation", nil)
	}
	if text == "" && imageURL == "" {
		return nil, errors.BadRequest("Message must carry text or an image", nil)
	}

	message := &entity.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		ImageURL:       imageURL,
		CreatedAt:      time.Now(),
	}
	if err := uc.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	conversation.LastMessage = message.Text
	conversation.LastMessageID = message.ID
	conversation.LastMessageAt = message.CreatedAt
	if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
		logger.Warn("CreateMessage: failed to update conversation %s preview: %v", conversationID, err)
	}

	return message, nil
}

// History returns one newest-first page of a conversation's messages.
// Callers that want chronological order reverse the page themselves.
func (uc *MessageUseCase) History(ctx context.Context, userID, conversationID string, page, pageSize int) ([]*entity.Message, int64, bool, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, 0, false, err
	}
	if !conversation.HasMember(userID) {
		return nil, 0, false, errors.Forbidden("User is not a member of this conversation", nil)
	}

	offset := (page - 1) * pageSize
	messages, total, err := uc.messageRepo.ListByConversation(ctx, conversationID, pageSize, offset)
	if err != nil {
		return nil, 0, false, err
	}

	hasMore := int64(offset+len(messages)) < total
	return messages, total, hasMore, nil
}
