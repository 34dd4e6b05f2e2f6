package chatclient

import "time"

// Wire event types. These mirror the relay protocol; the package speaks
// the wire format directly rather than linking against server internals,
// the way any out-of-process client would.
const (
	eventIdentify   = "IDENTIFY"
	eventChat       = "CHAT"
	eventMarkAsSeen = "MARK_AS_SEEN"

	pushNewMessage  = "NEW_MESSAGE"
	pushUnseenCount = "UNSEEN_COUNT_UPDATE"
)

type envelope struct {
	Type           string `json:"type"`
	UserID         string `json:"userId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	FromUserID     string `json:"fromUserId,omitempty"`
	ToUserID       string `json:"toUserId,omitempty"`
	Body           string `json:"body,omitempty"`
	MessageType    string `json:"messageType,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
	TempID         string `json:"tempId,omitempty"`
}

type push struct {
	Type    string `json:"type"`
	Payload struct {
		ID             string    `json:"id"`
		ConversationID string    `json:"conversationId"`
		Sender         string    `json:"sender"`
		Text           string    `json:"text"`
		ImageURL       string    `json:"imageUrl,omitempty"`
		TempID         string    `json:"tempId,omitempty"`
		Count          int       `json:"count"`
		CreatedAt      time.Time `json:"createdAt"`
	} `json:"payload"`
}

// Message is one chat entry as the client caches it. Pending marks an
// optimistic or fallback-sent entry the relay has not yet confirmed.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	ImageURL       string    `json:"image_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	TempID         string    `json:"-"`
	Pending        bool      `json:"-"`
}

// Counterpart is the other member's directory identity.
type Counterpart struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	IsOnline bool   `json:"is_online"`
}

// Conversation is one directory entry as returned by the REST listing.
type Conversation struct {
	ConversationID string       `json:"conversation_id"`
	LastMessage    string       `json:"last_message"`
	LastMessageID  string       `json:"last_message_id"`
	LastMessageAt  time.Time    `json:"last_message_at"`
	UnreadCount    int          `json:"unread_count"`
	Counterpart    *Counterpart `json:"counterpart"`
}
