package relay

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftcart/internal/domain/entity"
)

type fakeChatService struct {
	mu          sync.Mutex
	failDeliver bool
	delivered   []ChatEvent
	seen        []string
	unread      int
}

func (f *fakeChatService) DeliverChat(ctx context.Context, event ChatEvent) (*entity.Message, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failDeliver {
		return nil, 0, stderrors.New("store unavailable")
	}

	f.delivered = append(f.delivered, event)
	f.unread++
	return &entity.Message{
		ID:             fmt.Sprintf("msg-%d", len(f.delivered)),
		ConversationID: event.ConversationID,
		SenderID:       event.FromUserID,
		Text:           event.Body,
		ImageURL:       event.ImageURL,
		CreatedAt:      time.Now(),
	}, f.unread, nil
}

func (f *fakeChatService) MarkSeen(ctx context.Context, userID, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, userID+"/"+conversationID)
	return nil
}

func (f *fakeChatService) deliveredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.delivered)
}

func (f *fakeChatService) seenCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

func newTestRelay(t *testing.T, svc ChatService) (*Server, *httptest.Server) {
	t.Helper()

	server := NewServer(svc, time.Minute)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		server.HandleConn(ws)
	}))
	t.Cleanup(ts.Close)

	return server, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func identify(t *testing.T, server *Server, conn *websocket.Conn, userID string) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(Envelope{Type: EventIdentify, UserID: userID}))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := server.Registry().Resolve(userID); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("user %s never registered", userID)
}

type receivedPush struct {
	Type    string `json:"type"`
	Payload struct {
		ID             string `json:"id"`
		ConversationID string `json:"conversationId"`
		Sender         string `json:"sender"`
		Text           string `json:"text"`
		TempID         string `json:"tempId"`
		Count          int    `json:"count"`
	} `json:"payload"`
}

func readPush(t *testing.T, conn *websocket.Conn) receivedPush {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var push receivedPush
	require.NoError(t, conn.ReadJSON(&push))
	return push
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestChatIsPersistedForwardedAndEchoed(t *testing.T) {
	svc := &fakeChatService{}
	server, ts := newTestRelay(t, svc)

	sender := dial(t, ts)
	recipient := dial(t, ts)
	identify(t, server, sender, "buyer-1")
	identify(t, server, recipient, "seller-1")

	require.NoError(t, sender.WriteJSON(Envelope{
		Type:           EventChat,
		ConversationID: "conv-1",
		FromUserID:     "buyer-1",
		ToUserID:       "seller-1",
		Body:           "is this still available?",
		TempID:         "temp-abc",
	}))

	// Recipient gets the message and the updated unread counter.
	first := readPush(t, recipient)
	second := readPush(t, recipient)
	pushes := map[string]receivedPush{first.Type: first, second.Type: second}

	msg, ok := pushes[PushNewMessage]
	require.True(t, ok)
	assert.Equal(t, "msg-1", msg.Payload.ID)
	assert.Equal(t, "conv-1", msg.Payload.ConversationID)
	assert.Equal(t, "buyer-1", msg.Payload.Sender)
	assert.Equal(t, "is this still available?", msg.Payload.Text)
	assert.Equal(t, "temp-abc", msg.Payload.TempID)

	count, ok := pushes[PushUnseenCount]
	require.True(t, ok)
	assert.Equal(t, 1, count.Payload.Count)

	// Sender gets the echo with the authoritative id and its tempId.
	echo := readPush(t, sender)
	assert.Equal(t, PushNewMessage, echo.Type)
	assert.Equal(t, "msg-1", echo.Payload.ID)
	assert.Equal(t, "temp-abc", echo.Payload.TempID)

	assert.Equal(t, 1, svc.deliveredCount())
}

func TestChatNotForwardedWhenPersistenceFails(t *testing.T) {
	svc := &fakeChatService{failDeliver: true}
	server, ts := newTestRelay(t, svc)

	sender := dial(t, ts)
	recipient := dial(t, ts)
	identify(t, server, sender, "buyer-1")
	identify(t, server, recipient, "seller-1")

	require.NoError(t, sender.WriteJSON(Envelope{
		Type:           EventChat,
		ConversationID: "conv-1",
		FromUserID:     "buyer-1",
		ToUserID:       "seller-1",
		Body:           "hello",
	}))

	// Nothing was persisted, so nothing is forwarded or echoed.
	expectSilence(t, recipient)
	expectSilence(t, sender)
}

func TestChatToOfflineRecipientStillPersists(t *testing.T) {
	svc := &fakeChatService{}
	server, ts := newTestRelay(t, svc)

	sender := dial(t, ts)
	identify(t, server, sender, "buyer-1")

	require.NoError(t, sender.WriteJSON(Envelope{
		Type:           EventChat,
		ConversationID: "conv-1",
		FromUserID:     "buyer-1",
		ToUserID:       "seller-1",
		Body:           "hello",
	}))

	echo := readPush(t, sender)
	assert.Equal(t, PushNewMessage, echo.Type)
	assert.Equal(t, 1, svc.deliveredCount())
}

func TestMarkAsSeenResetsAndPushesZero(t *testing.T) {
	svc := &fakeChatService{}
	server, ts := newTestRelay(t, svc)

	conn := dial(t, ts)
	identify(t, server, conn, "seller-1")

	require.NoError(t, conn.WriteJSON(Envelope{
		Type:           EventMarkAsSeen,
		ConversationID: "conv-1",
	}))

	push := readPush(t, conn)
	assert.Equal(t, PushUnseenCount, push.Type)
	assert.Equal(t, "conv-1", push.Payload.ConversationID)
	assert.Equal(t, 0, push.Payload.Count)

	assert.Equal(t, []string{"seller-1/conv-1"}, svc.seenCalls())
}

func TestMarkAsSeenRequiresIdentify(t *testing.T) {
	svc := &fakeChatService{}
	_, ts := newTestRelay(t, svc)

	conn := dial(t, ts)
	require.NoError(t, conn.WriteJSON(Envelope{
		Type:           EventMarkAsSeen,
		ConversationID: "conv-1",
	}))

	expectSilence(t, conn)
	assert.Empty(t, svc.seenCalls())
}

func TestMalformedAndUnknownFramesKeepConnection(t *testing.T) {
	svc := &fakeChatService{}
	server, ts := newTestRelay(t, svc)

	conn := dial(t, ts)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(Envelope{Type: "TELEPORT"}))

	// The connection is still serviceable after both bad frames.
	identify(t, server, conn, "buyer-1")
	require.NoError(t, conn.WriteJSON(Envelope{
		Type:           EventChat,
		ConversationID: "conv-1",
		FromUserID:     "buyer-1",
		ToUserID:       "seller-1",
		Body:           "hello",
	}))

	echo := readPush(t, conn)
	assert.Equal(t, PushNewMessage, echo.Type)
}

func TestChatFromMismatchedSenderIsDropped(t *testing.T) {
	svc := &fakeChatService{}
	server, ts := newTestRelay(t, svc)

	conn := dial(t, ts)
	identify(t, server, conn, "buyer-1")

	require.NoError(t, conn.WriteJSON(Envelope{
		Type:           EventChat,
		ConversationID: "conv-1",
		FromUserID:     "someone-else",
		ToUserID:       "seller-1",
		Body:           "hello",
	}))

	expectSilence(t, conn)
	assert.Equal(t, 0, svc.deliveredCount())
}

func TestIdentifySupersedesOlderConnection(t *testing.T) {
	svc := &fakeChatService{}
	server, ts := newTestRelay(t, svc)

	first := dial(t, ts)
	identify(t, server, first, "buyer-1")

	second := dial(t, ts)
	require.NoError(t, second.WriteJSON(Envelope{Type: EventIdentify, UserID: "buyer-1"}))

	// The superseded connection is closed by the server.
	first.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)

	assert.Equal(t, 1, server.Registry().Len())
}
