package usecase

import (
	"context"
	"time"

	"swiftcart/internal/domain/entity"
	"swiftcart/internal/domain/repository"
	"swiftcart/pkg/errors"
	"swiftcart/pkg/logger"
)

// ConversationUseCase is the conversation directory: lazy pair creation,
// per-user listings with counterpart enrichment, preview updates and
// seen acknowledgements.
type ConversationUseCase struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
}

func NewConversationUseCase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
) *ConversationUseCase {
	return &ConversationUseCase{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
	}
}

// CounterpartInfo is the public identity of the other member, resolved
// from the user directory.
type CounterpartInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	IsOnline bool   `json:"is_online"`
}

type ConversationSummary struct {
	ConversationID string           `json:"conversation_id"`
	LastMessage    string           `json:"last_message"`
	LastMessageID  string           `json:"last_message_id"`
	LastMessageAt  time.Time        `json:"last_message_at"`
	UnreadCount    int              `json:"unread_count"`
	Counterpart    *CounterpartInfo `json:"counterpart"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CreateOrGet returns the conversation for the unordered {userID, sellerID}
// pair, creating it with empty preview fields on first contact. Calling it
// twice for the same pair yields the same conversation.
func (uc *ConversationUseCase) CreateOrGet(ctx context.Context, userID, sellerID string) (*entity.Conversation, error) {
	if userID == sellerID {
		return nil, errors.BadRequest("You cannot start a conversation with yourself", nil)
	}
	if sellerID == "" {
		return nil, errors.BadRequest("Seller id is required", nil)
	}

	existing, err := uc.conversationRepo.GetByMembers(ctx, userID, sellerID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		logger.Error("CreateOrGet: failed to look up conversation for pair (%s, %s): %v", userID, sellerID, err)
		return nil, err
	}

	conversation := &entity.Conversation{
		Members:       []string{userID, sellerID},
		UnreadCount:   make(map[string]int),
		LastMessageAt: time.Now(),
	}
	if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
		logger.Error("CreateOrGet: failed to create conversation for pair (%s, %s): %v", userID, sellerID, err)
		return nil, err
	}

	return conversation, nil
}

// ListForUser returns the caller's conversations newest activity first.
// A conversation whose counterpart cannot be resolved still appears with
// a nil counterpart; a bad entry must not sink the whole listing.
func (uc *ConversationUseCase) ListForUser(ctx context.Context, userID string) ([]*ConversationSummary, error) {
	conversations, err := uc.conversationRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		summary := &ConversationSummary{
			ConversationID: conversation.ID,
			LastMessage:    conversation.LastMessage,
			LastMessageID:  conversation.LastMessageID,
			LastMessageAt:  conversation.LastMessageAt,
			UnreadCount:    conversation.UnreadCount[userID],
			UpdatedAt:      conversation.UpdatedAt,
		}

		if otherID := conversation.Counterpart(userID); otherID != "" && len(conversation.Members) == 2 {
			other, err := uc.userRepo.GetByID(ctx, otherID)
			if err != nil {
				logger.Warn("ListForUser: counterpart %s not resolvable for conversation %s: %v", otherID, conversation.ID, err)
			} else {
				summary.Counterpart = &CounterpartInfo{
					ID:       other.ID,
					Name:     other.Username,
					Avatar:   other.AvatarURL,
					IsOnline: other.OnlineStatus == "online",
				}
			}
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// UpdateLastMessage is the explicit preview update path used when a
// message was persisted outside the relay.
func (uc *ConversationUseCase) UpdateLastMessage(ctx context.Context, conversationID, text, messageID string) (*entity.Conversation, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	conversation.LastMessage = text
	conversation.LastMessageID = messageID
	conversation.LastMessageAt = time.Now()

	if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
		logger.Error("UpdateLastMessage: failed to update conversation %s: %v", conversationID, err)
		return nil, err
	}

	return conversation, nil
}

// MarkSeen resets userID's unread counter for the conversation to zero.
func (uc *ConversationUseCase) MarkSeen(ctx context.Context, userID, conversationID string) error {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	if !conversation.HasMember(userID) {
		return errors.Forbidden("User is not a member of this conversation", nil)
	}

	if conversation.UnreadCount == nil {
		conversation.UnreadCount = make(map[string]int)
	}
	conversation.UnreadCount[userID] = 0

	if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
		logger.Error("MarkSeen: failed to reset unread count for user %s in conversation %s: %v", userID, conversationID, err)
		return err
	}

	return nil
}
