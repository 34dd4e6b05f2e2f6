package entity

import "time"

type Conversation struct {
	ID            string         `json:"id" firestore:"id"`
	Members       []string       `json:"members" firestore:"members"` // exactly two: buyer and seller
	LastMessage   string         `json:"last_message" firestore:"lastMessage"`
	LastMessageID string         `json:"last_message_id" firestore:"lastMessageId"`
	LastMessageAt time.Time      `json:"last_message_at" firestore:"lastMessageAt"`
	UnreadCount   map[string]int `json:"unread_count" firestore:"unreadCount"` // member ID -> unread messages
	CreatedAt     time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time      `json:"updated_at" firestore:"updatedAt"`
}

// HasMember reports whether userID belongs to the conversation.
func (c *Conversation) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the member that is not userID, or "" when the
// membership data is incomplete.
func (c *Conversation) Counterpart(userID string) string {
	for _, m := range c.Members {
		if m != userID {
			return m
		}
	}
	return ""
}
