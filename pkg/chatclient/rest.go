package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// restClient talks to the conversation REST surface. It is the snapshot
// and fallback half of the client; the live half is the socket.
type restClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newRESTClient(baseURL, token string) *restClient {
	return &restClient{
		baseURL: baseURL,
		token:   token,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type messagePage struct {
	Items   []Message `json:"items"`
	Total   int64     `json:"total"`
	HasMore bool      `json:"has_more"`
}

func (r *restClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	if !env.Success {
		if env.Error != nil {
			return fmt.Errorf("%s %s: %s: %s", method, path, env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding %s %s payload: %w", method, path, err)
		}
	}
	return nil
}

// ListConversations fetches the caller's directory, newest activity first.
func (r *restClient) ListConversations(ctx context.Context) ([]Conversation, error) {
	var conversations []Conversation
	if err := r.do(ctx, http.MethodGet, "/v1/conversations", nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// CreateConversation opens (or returns) the conversation with sellerID.
func (r *restClient) CreateConversation(ctx context.Context, sellerID string) (*Conversation, error) {
	var conversation struct {
		ID string `json:"id"`
	}
	body := map[string]string{"seller_id": sellerID}
	if err := r.do(ctx, http.MethodPost, "/v1/conversations", body, &conversation); err != nil {
		return nil, err
	}
	return &Conversation{ConversationID: conversation.ID}, nil
}

// FetchMessages returns one newest-first history page.
func (r *restClient) FetchMessages(ctx context.Context, conversationID string, page, limit int) ([]Message, bool, error) {
	path := fmt.Sprintf("/v1/conversations/%s/messages?page=%d&limit=%d", conversationID, page, limit)
	var result messagePage
	if err := r.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, false, err
	}
	return result.Items, result.HasMore, nil
}

// CreateMessage is the durable fallback write used when the socket is down.
func (r *restClient) CreateMessage(ctx context.Context, conversationID, text, imageURL string) (*Message, error) {
	body := map[string]string{"text": text}
	if imageURL != "" {
		body["image_url"] = imageURL
	}
	var message Message
	if err := r.do(ctx, http.MethodPost, "/v1/conversations/"+conversationID+"/messages", body, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// UpdateLastMessage refreshes the conversation preview after a fallback send.
func (r *restClient) UpdateLastMessage(ctx context.Context, conversationID, text, messageID string) error {
	body := map[string]string{
		"last_message":    text,
		"last_message_id": messageID,
	}
	return r.do(ctx, http.MethodPut, "/v1/conversations/"+conversationID+"/last-message", body, nil)
}

// MarkSeen resets the caller's unread counter over REST.
func (r *restClient) MarkSeen(ctx context.Context, conversationID string) error {
	return r.do(ctx, http.MethodPut, "/v1/conversations/"+conversationID+"/seen", nil, nil)
}
