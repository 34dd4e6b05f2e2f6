package chatclient

import (
	"sync"
)

// ConversationState tracks how far a conversation's local view has been
// hydrated.
type ConversationState int

const (
	// StateClosed: only the directory entry is cached; pushes for the
	// conversation just bump its unread counter.
	StateClosed ConversationState = iota
	// StateOpening: a history snapshot is in flight; live pushes are
	// buffered so the replay can merge them without loss.
	StateOpening
	// StateOpen: snapshot applied, buffer drained, pushes merge live.
	StateOpen
)

type conversationView struct {
	state    ConversationState
	summary  Conversation
	messages []Message // chronological, oldest first
	buffer   []Message // pushes parked while Opening
	byID     map[string]int
	byTempID map[string]int
}

// Store is the client-side cache: the conversation directory plus per-
// conversation message views. One mutex guards everything; the socket
// read loop and UI queries race otherwise.
type Store struct {
	mu    sync.Mutex
	views map[string]*conversationView
}

func NewStore() *Store {
	return &Store{
		views: make(map[string]*conversationView),
	}
}

func (s *Store) view(conversationID string) *conversationView {
	v, ok := s.views[conversationID]
	if !ok {
		v = &conversationView{
			state:    StateClosed,
			summary:  Conversation{ConversationID: conversationID},
			byID:     make(map[string]int),
			byTempID: make(map[string]int),
		}
		s.views[conversationID] = v
	}
	return v
}

// SetDirectory replaces the cached directory from a REST listing. Message
// views and states are preserved; only summaries are refreshed.
func (s *Store) SetDirectory(conversations []Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, conversation := range conversations {
		v := s.view(conversation.ConversationID)
		v.summary = conversation
	}
}

// Directory returns a copy of the cached conversation summaries.
func (s *Store) Directory() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversations := make([]Conversation, 0, len(s.views))
	for _, v := range s.views {
		conversations = append(conversations, v.summary)
	}
	return conversations
}

// BeginOpen moves a conversation to Opening. Pushes arriving before the
// snapshot lands are buffered, not applied and not lost.
func (s *Store) BeginOpen(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.view(conversationID)
	if v.state == StateClosed {
		v.state = StateOpening
		v.buffer = nil
	}
}

// ApplySnapshot installs a fetched history page (newest first, as the
// server returns it) and replays anything buffered while the fetch was
// in flight. Buffered events that the snapshot already contains are
// dropped by the id/tempId merge.
func (s *Store) ApplySnapshot(conversationID string, newestFirst []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.view(conversationID)
	v.messages = nil
	v.byID = make(map[string]int)
	v.byTempID = make(map[string]int)

	for i := len(newestFirst) - 1; i >= 0; i-- {
		mergeLocked(v, newestFirst[i])
	}

	for _, buffered := range v.buffer {
		mergeLocked(v, buffered)
	}
	v.buffer = nil
	v.state = StateOpen
}

// Close moves a conversation back to Closed, releasing its message view.
func (s *Store) Close(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.view(conversationID)
	v.state = StateClosed
	v.messages = nil
	v.buffer = nil
	v.byID = make(map[string]int)
	v.byTempID = make(map[string]int)
}

// State reports the conversation's hydration state.
func (s *Store) State(conversationID string) ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(conversationID).state
}

// Messages returns a chronological copy of an open conversation's view.
func (s *Store) Messages(conversationID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.view(conversationID)
	out := make([]Message, len(v.messages))
	copy(out, v.messages)
	return out
}

// AddPending records an optimistic entry for a just-sent message. The
// echoed NEW_MESSAGE replaces it in place via tempId.
func (s *Store) AddPending(message Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.view(message.ConversationID)
	message.Pending = true
	if v.state == StateOpen || v.state == StateOpening {
		v.messages = append(v.messages, message)
		if message.TempID != "" {
			v.byTempID[message.TempID] = len(v.messages) - 1
		}
		if message.ID != "" {
			v.byID[message.ID] = len(v.messages) - 1
		}
	}
	v.summary.LastMessage = message.Text
	v.summary.LastMessageAt = message.CreatedAt
}

// ApplyNewMessage routes a NEW_MESSAGE push by conversation state: merge
// when Open, buffer when Opening, count when Closed. selfID distinguishes
// echoes of our own sends from counterpart messages.
func (s *Store) ApplyNewMessage(selfID string, message Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.view(message.ConversationID)

	v.summary.LastMessage = message.Text
	v.summary.LastMessageID = message.ID
	v.summary.LastMessageAt = message.CreatedAt

	switch v.state {
	case StateOpen:
		mergeLocked(v, message)
	case StateOpening:
		v.buffer = append(v.buffer, message)
	case StateClosed:
		if message.SenderID != selfID {
			v.summary.UnreadCount++
		}
	}
}

// ApplyUnseenCount installs an authoritative unread counter from an
// UNSEEN_COUNT_UPDATE push.
func (s *Store) ApplyUnseenCount(conversationID string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.view(conversationID).summary.UnreadCount = count
}

// MarkSeenLocal zeroes the local counter ahead of the server acknowledging.
func (s *Store) MarkSeenLocal(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.view(conversationID).summary.UnreadCount = 0
}

// TotalUnread sums unread counters across the cached directory; this is
// the tab-badge number.
func (s *Store) TotalUnread() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, v := range s.views {
		total += v.summary.UnreadCount
	}
	return total
}

// OpenConversationIDs returns conversations currently hydrated or
// hydrating, used to refresh snapshots after a reconnect.
func (s *Store) OpenConversationIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, v := range s.views {
		if v.state != StateClosed {
			ids = append(ids, id)
		}
	}
	return ids
}

// mergeLocked appends or replaces one message in chronological position.
// A message matching a pending entry's tempId replaces it in place; a
// message whose id is already present refreshes that entry. Neither case
// grows the view.
func mergeLocked(v *conversationView, message Message) {
	if message.TempID != "" {
		if idx, ok := v.byTempID[message.TempID]; ok {
			if old := v.messages[idx].ID; old != "" && old != message.ID {
				delete(v.byID, old)
			}
			message.Pending = false
			v.messages[idx] = message
			if message.ID != "" {
				v.byID[message.ID] = idx
			}
			return
		}
	}
	if message.ID != "" {
		if idx, ok := v.byID[message.ID]; ok {
			if tempID := v.messages[idx].TempID; tempID != "" {
				message.TempID = tempID
			}
			message.Pending = false
			v.messages[idx] = message
			return
		}
	}

	v.messages = append(v.messages, message)
	idx := len(v.messages) - 1
	if message.ID != "" {
		v.byID[message.ID] = idx
	}
	if message.TempID != "" {
		v.byTempID[message.TempID] = idx
	}
}
