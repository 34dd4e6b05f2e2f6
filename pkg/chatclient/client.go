package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"swiftcart/pkg/logger"
)

var errNotConnected = errors.New("chatclient: socket not connected")

const (
	minReconnectDelay = time.Second
	maxReconnectDelay = 30 * time.Second
	writeTimeout      = 10 * time.Second
	snapshotPageSize  = 50
)

// Options configures a Client.
type Options struct {
	// BaseURL is the REST origin, e.g. https://api.example.com.
	BaseURL string
	// SocketURL is the relay endpoint, e.g. wss://api.example.com/ws.
	SocketURL string
	// Token is the Firebase ID token sent on REST calls.
	Token string
	// UserID is the identity bound over the socket via IDENTIFY.
	UserID string
}

// Client is the device-side chat client: a live socket with identify and
// reconnect, backed by the REST surface for snapshots and degraded sends.
type Client struct {
	opts  Options
	rest  *restClient
	store *Store

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

func New(opts Options) *Client {
	return &Client{
		opts:  opts,
		rest:  newRESTClient(opts.BaseURL, opts.Token),
		store: NewStore(),
	}
}

// Store exposes the local cache for UI queries.
func (c *Client) Store() *Store {
	return c.store
}

// Run maintains the socket until ctx is cancelled: dial, identify, read
// pushes, and on failure reconnect with exponential backoff. Each
// reconnect re-identifies and refreshes the directory plus any hydrated
// conversations, so a gap in connectivity never leaves stale views.
func (c *Client) Run(ctx context.Context) {
	delay := minReconnectDelay

	for {
		if err := c.connect(ctx); err != nil {
			logger.Warn("chatclient: connect failed: %v", err)
		} else {
			delay = minReconnectDelay
			c.refresh(ctx)
			c.readLoop()
			c.setConn(nil)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(jitter(delay)):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func jitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}

func (c *Client) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.opts.SocketURL, nil)
	if err != nil {
		return err
	}
	c.setConn(conn)

	return c.writeEvent(envelope{
		Type:   eventIdentify,
		UserID: c.opts.UserID,
	})
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && conn == nil {
		c.conn.Close()
	}
	c.conn = conn
	c.connected = conn != nil
}

// refresh re-hydrates after (re)connecting: directory first, then a fresh
// snapshot of every conversation the UI has open.
func (c *Client) refresh(ctx context.Context) {
	conversations, err := c.rest.ListConversations(ctx)
	if err != nil {
		logger.Warn("chatclient: directory refresh failed: %v", err)
	} else {
		c.store.SetDirectory(conversations)
	}

	for _, conversationID := range c.store.OpenConversationIDs() {
		messages, _, err := c.rest.FetchMessages(ctx, conversationID, 1, snapshotPageSize)
		if err != nil {
			logger.Warn("chatclient: snapshot refresh for %s failed: %v", conversationID, err)
			continue
		}
		c.store.ApplySnapshot(conversationID, messages)
	}
}

func (c *Client) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, frame, err := conn.ReadMessage()
		if err != nil {
			logger.Warn("chatclient: socket read failed: %v", err)
			return
		}
		c.dispatch(frame)
	}
}

func (c *Client) dispatch(frame []byte) {
	var p push
	if err := json.Unmarshal(frame, &p); err != nil {
		logger.Warn("chatclient: dropping malformed push: %v", err)
		return
	}

	switch p.Type {
	case pushNewMessage:
		c.store.ApplyNewMessage(c.opts.UserID, Message{
			ID:             p.Payload.ID,
			ConversationID: p.Payload.ConversationID,
			SenderID:       p.Payload.Sender,
			Text:           p.Payload.Text,
			ImageURL:       p.Payload.ImageURL,
			CreatedAt:      p.Payload.CreatedAt,
			TempID:         p.Payload.TempID,
		})
	case pushUnseenCount:
		c.store.ApplyUnseenCount(p.Payload.ConversationID, p.Payload.Count)
	default:
		logger.Debug("chatclient: ignoring push of type %q", p.Type)
	}
}

func (c *Client) writeEvent(env envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(env)
}

func (c *Client) isConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// OpenConversation hydrates a conversation: pushes arriving while the
// snapshot is in flight are buffered and replayed, so nothing is lost or
// duplicated around the fetch.
func (c *Client) OpenConversation(ctx context.Context, conversationID string) error {
	c.store.BeginOpen(conversationID)

	messages, _, err := c.rest.FetchMessages(ctx, conversationID, 1, snapshotPageSize)
	if err != nil {
		c.store.Close(conversationID)
		return err
	}

	c.store.ApplySnapshot(conversationID, messages)
	return nil
}

// CloseConversation releases a hydrated view.
func (c *Client) CloseConversation(conversationID string) {
	c.store.Close(conversationID)
}

// SendMessage sends over the live socket when it is up, falling back to
// the durable REST path otherwise. Either way an optimistic entry with a
// temp- id appears immediately; the relay echo (or the REST response)
// replaces it in place rather than appending a duplicate.
func (c *Client) SendMessage(ctx context.Context, conversationID, toUserID, text, imageURL string) error {
	tempID := "temp-" + uuid.New().String()
	messageType := "text"
	if imageURL != "" {
		messageType = "image"
	}

	c.store.AddPending(Message{
		ConversationID: conversationID,
		SenderID:       c.opts.UserID,
		Text:           text,
		ImageURL:       imageURL,
		CreatedAt:      time.Now(),
		TempID:         tempID,
	})

	if c.isConnected() {
		err := c.writeEvent(envelope{
			Type:           eventChat,
			ConversationID: conversationID,
			FromUserID:     c.opts.UserID,
			ToUserID:       toUserID,
			Body:           text,
			MessageType:    messageType,
			ImageURL:       imageURL,
			TempID:         tempID,
		})
		if err == nil {
			return nil
		}
		logger.Warn("chatclient: live send failed, falling back to REST: %v", err)
	}

	message, err := c.rest.CreateMessage(ctx, conversationID, text, imageURL)
	if err != nil {
		// The optimistic entry stays pending so the UI can show the send
		// as degraded and offer a retry.
		return err
	}

	if err := c.rest.UpdateLastMessage(ctx, conversationID, message.Text, message.ID); err != nil {
		logger.Warn("chatclient: preview update after fallback send failed: %v", err)
	}

	resolved := *message
	resolved.TempID = tempID
	c.store.ApplyNewMessage(c.opts.UserID, resolved)
	return nil
}

// MarkSeen zeroes the local counter and tells the server, over the socket
// when live and over REST otherwise.
func (c *Client) MarkSeen(ctx context.Context, conversationID string) error {
	c.store.MarkSeenLocal(conversationID)

	if c.isConnected() {
		err := c.writeEvent(envelope{
			Type:           eventMarkAsSeen,
			ConversationID: conversationID,
		})
		if err == nil {
			return nil
		}
		logger.Warn("chatclient: live mark-seen failed, falling back to REST: %v", err)
	}

	return c.rest.MarkSeen(ctx, conversationID)
}

// RefreshDirectory re-fetches the conversation listing on demand.
func (c *Client) RefreshDirectory(ctx context.Context) error {
	conversations, err := c.rest.ListConversations(ctx)
	if err != nil {
		return err
	}
	c.store.SetDirectory(conversations)
	return nil
}

// StartConversation opens (or fetches) the conversation with a seller.
func (c *Client) StartConversation(ctx context.Context, sellerID string) (string, error) {
	conversation, err := c.rest.CreateConversation(ctx, sellerID)
	if err != nil {
		return "", err
	}
	return conversation.ConversationID, nil
}
