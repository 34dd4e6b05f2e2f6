package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"swiftcart/pkg/logger"
)

const defaultPingInterval = 30 * time.Second

// Server holds one live connection per online user and moves chat events
// between them, persisting through the ChatService as it goes.
type Server struct {
	registry     *Registry
	chats        ChatService
	pingInterval time.Duration
}

func NewServer(chats ChatService, pingInterval time.Duration) *Server {
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	return &Server{
		registry:     NewRegistry(),
		chats:        chats,
		pingInterval: pingInterval,
	}
}

// Registry exposes the connection registry, mainly for liveness checks.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Start runs the heartbeat sweep until ctx is cancelled, then closes
// every remaining connection.
func (s *Server) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-ctx.Done():
				for _, conn := range s.registry.Snapshot() {
					s.drop(conn, "server shutting down")
				}
				return
			}
		}
	}()
}

// sweep terminates connections that never answered the previous ping and
// pings the rest.
func (s *Server) sweep() {
	for _, conn := range s.registry.Snapshot() {
		if !conn.alive.Load() {
			s.drop(conn, "heartbeat timeout")
			continue
		}
		conn.alive.Store(false)
		conn.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
	}
}

// drop closes conn and removes its registry entry as one step, so the
// heartbeat sweep cannot race a concurrent close.
func (s *Server) drop(conn *Conn, reason string) {
	conn.closeOnce.Do(func() {
		if uid := conn.UserID(); uid != "" {
			s.registry.Remove(uid, conn)
		}
		close(conn.done)
		conn.ws.Close()
		logger.Debug("Relay: connection for user %q closed: %s", conn.UserID(), reason)
	})
}

// HandleConn serves a freshly upgraded WebSocket connection. It blocks
// until the connection is gone, processing its events strictly in
// arrival order.
func (s *Server) HandleConn(ws *websocket.Conn) {
	conn := newConn(ws)
	go conn.writePump()

	for {
		_, frame, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("Relay: read error for user %q: %v", conn.UserID(), err)
			}
			break
		}
		s.handleFrame(conn, frame)
	}

	s.drop(conn, "connection closed")
}

func (s *Server) handleFrame(conn *Conn, frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		logger.Warn("Relay: dropping malformed frame from user %q: %v", conn.UserID(), err)
		return
	}

	switch env.Type {
	case EventIdentify:
		s.handleIdentify(conn, env)
	case EventChat:
		s.handleChat(conn, env)
	case EventMarkAsSeen:
		s.handleMarkAsSeen(conn, env)
	default:
		logger.Warn("Relay: rejecting event with unknown type %q from user %q", env.Type, conn.UserID())
	}
}

func (s *Server) handleIdentify(conn *Conn, env Envelope) {
	if env.UserID == "" {
		logger.Warn("Relay: IDENTIFY without userId, ignoring")
		return
	}

	conn.setUserID(env.UserID)
	if prev := s.registry.Bind(env.UserID, conn); prev != nil {
		// Single session per identity: the superseded connection is
		// closed rather than left dangling.
		s.drop(prev, "superseded by newer connection")
	}
	logger.Info("Relay: identified user %s", env.UserID)
}

func (s *Server) handleChat(conn *Conn, env Envelope) {
	if env.ConversationID == "" || env.FromUserID == "" || env.ToUserID == "" {
		logger.Warn("Relay: CHAT missing routing fields from user %q, dropping", conn.UserID())
		return
	}
	if env.Body == "" && env.ImageURL == "" {
		logger.Warn("Relay: CHAT with empty body from user %s, dropping", env.FromUserID)
		return
	}
	if uid := conn.UserID(); uid != "" && uid != env.FromUserID {
		logger.Warn("Relay: CHAT sender %s does not match bound identity %s, dropping", env.FromUserID, uid)
		return
	}

	message, unread, err := s.chats.DeliverChat(context.Background(), ChatEvent{
		ConversationID: env.ConversationID,
		FromUserID:     env.FromUserID,
		ToUserID:       env.ToUserID,
		Body:           env.Body,
		MessageType:    env.MessageType,
		ImageURL:       env.ImageURL,
		TempID:         env.TempID,
	})
	if err != nil {
		// Forwarding is conditioned on a successful write: an event that
		// was never persisted must not reach the recipient.
		logger.Error("Relay: failed to persist CHAT for conversation %s: %v", env.ConversationID, err)
		return
	}

	frame, err := encodePush(Push{
		Type: PushNewMessage,
		Payload: NewMessagePayload{
			ID:             message.ID,
			ConversationID: message.ConversationID,
			Sender:         message.SenderID,
			Text:           message.Text,
			ImageURL:       message.ImageURL,
			TempID:         env.TempID,
			CreatedAt:      message.CreatedAt,
		},
	})
	if err != nil {
		logger.Error("Relay: failed to encode NEW_MESSAGE for conversation %s: %v", env.ConversationID, err)
		return
	}

	// Recipient offline is a normal routing outcome; the message reaches
	// them through the history fetch on reconnect.
	if recipient, ok := s.registry.Resolve(env.ToUserID); ok {
		recipient.Push(frame)
		s.pushUnseenCount(recipient, env.ConversationID, unread)
	}

	// Echo to the sender so its UI learns the authoritative id/timestamp.
	conn.Push(frame)
}

func (s *Server) handleMarkAsSeen(conn *Conn, env Envelope) {
	uid := conn.UserID()
	if uid == "" || env.ConversationID == "" {
		logger.Warn("Relay: MARK_AS_SEEN from unidentified connection or without conversationId, ignoring")
		return
	}

	if err := s.chats.MarkSeen(context.Background(), uid, env.ConversationID); err != nil {
		logger.Error("Relay: failed to mark conversation %s seen for user %s: %v", env.ConversationID, uid, err)
		return
	}

	s.pushUnseenCount(conn, env.ConversationID, 0)
}

func (s *Server) pushUnseenCount(conn *Conn, conversationID string, count int) {
	frame, err := encodePush(Push{
		Type: PushUnseenCount,
		Payload: UnseenCountPayload{
			ConversationID: conversationID,
			Count:          count,
		},
	})
	if err != nil {
		logger.Error("Relay: failed to encode UNSEEN_COUNT_UPDATE: %v", err)
		return
	}
	conn.Push(frame)
}

func encodePush(push Push) ([]byte, error) {
	return json.Marshal(push)
}
