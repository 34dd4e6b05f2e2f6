package relay

import (
	"context"
	"time"

	"swiftcart/internal/domain/entity"
)

// Client-to-server event types. Every inbound frame must carry one of
// these in its "type" field; anything else is rejected and logged.
const (
	EventIdentify   = "IDENTIFY"
	EventChat       = "CHAT"
	EventMarkAsSeen = "MARK_AS_SEEN"
)

// Server-to-client push types.
const (
	PushNewMessage  = "NEW_MESSAGE"
	PushUnseenCount = "UNSEEN_COUNT_UPDATE"
)

// Envelope is the inbound wire format. One flat struct covers all event
// types; which fields are meaningful depends on Type.
type Envelope struct {
	Type           string `json:"type"`
	UserID         string `json:"userId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	FromUserID     string `json:"fromUserId,omitempty"`
	ToUserID       string `json:"toUserId,omitempty"`
	Body           string `json:"body,omitempty"`
	MessageType    string `json:"messageType,omitempty"` // "text" or "image"
	ImageURL       string `json:"imageUrl,omitempty"`
	TempID         string `json:"tempId,omitempty"` // client correlation id, echoed back
}

// Push is the outbound wire format.
type Push struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NewMessagePayload carries the persisted message, including its
// authoritative id and timestamp, to both recipient and sender.
type NewMessagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Sender         string    `json:"sender"`
	Text           string    `json:"text"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	TempID         string    `json:"tempId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type UnseenCountPayload struct {
	ConversationID string `json:"conversationId"`
	Count          int    `json:"count"`
}

// ChatEvent is a validated CHAT envelope handed to the chat service.
type ChatEvent struct {
	ConversationID string
	FromUserID     string
	ToUserID       string
	Body           string
	MessageType    string
	ImageURL       string
	TempID         string
}

// ChatService is the persistence side of the relay. DeliverChat stores
// the message, updates the conversation preview and the recipient's
// unread counter, and returns the stored message together with the
// recipient's new unread count. MarkSeen resets the caller's counter.
type ChatService interface {
	DeliverChat(ctx context.Context, event ChatEvent) (*entity.Message, int, error)
	MarkSeen(ctx context.Context, userID, conversationID string) error
}
