package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/validator"
)

const chatResource = "chat"

// ChatClient calls the customer-service chat endpoints under /chat.
type ChatClient struct {
	client *Client
}

// NewChatClient creates a ChatClient.
func NewChatClient(client *Client) *ChatClient {
	return &ChatClient{client: client}
}

func employeQuery(employeID *int64) url.Values {
	if employeID == nil {
		return nil
	}
	return url.Values{"employe_id": {strconv.FormatInt(*employeID, 10)}}
}

// Conversations lists the conversations visible to the current user.
func (c *ChatClient) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	var out []domain.Conversation
	if err := c.client.do(ctx, request{method: http.MethodGet, path: "/chat/conversations", resource: chatResource}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnreadCount returns the number of unread messages for the current user.
func (c *ChatClient) UnreadCount(ctx context.Context) (int, error) {
	var out domain.UnreadCount
	if err := c.client.do(ctx, request{method: http.MethodGet, path: "/chat/unread-count", resource: chatResource}, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Messages returns the messages of the conversation with clientID,
// optionally narrowed to one employee.
func (c *ChatClient) Messages(ctx context.Context, clientID int64, employeID *int64) ([]domain.ChatMessage, error) {
	req := request{
		method:   http.MethodGet,
		path:     idPath("/chat/conversations", clientID) + "/messages",
		query:    employeQuery(employeID),
		resource: chatResource,
	}
	var out []domain.ChatMessage
	if err := c.client.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Send posts a client message.
func (c *ChatClient) Send(ctx context.Context, in domain.SendMessageInput) (*domain.ChatMessage, error) {
	return c.post(ctx, "/chat/messages", in)
}

// Reply posts a staff reply to a client.
func (c *ChatClient) Reply(ctx context.Context, in domain.ReplyInput) (*domain.ChatMessage, error) {
	return c.post(ctx, "/chat/reply", in)
}

func (c *ChatClient) post(ctx context.Context, path string, payload any) (*domain.ChatMessage, error) {
	if err := validator.Validate(payload); err != nil {
		return nil, fmt.Errorf("validate %s: %w", chatResource, err)
	}
	req, err := jsonRequest(http.MethodPost, path, chatResource, payload)
	if err != nil {
		return nil, err
	}
	var msg domain.ChatMessage
	if err := c.client.do(ctx, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Delete removes a message.
func (c *ChatClient) Delete(ctx context.Context, messageID int64) error {
	return c.client.do(ctx, request{method: http.MethodDelete, path: idPath("/chat/messages", messageID), resource: chatResource}, nil)
}

// MarkRead marks one message as read.
func (c *ChatClient) MarkRead(ctx context.Context, messageID int64) error {
	return c.client.do(ctx, request{method: http.MethodPut, path: idPath("/chat/messages", messageID) + "/read", resource: chatResource}, nil)
}

// MarkConversationRead marks every message of a conversation as read.
func (c *ChatClient) MarkConversationRead(ctx context.Context, clientID int64, employeID *int64) error {
	req := request{
		method:   http.MethodPut,
		path:     idPath("/chat/conversations", clientID) + "/read",
		query:    employeQuery(employeID),
		resource: chatResource,
	}
	return c.client.do(ctx, req, nil)
}

// Assign assigns an employee to a client's conversation.
func (c *ChatClient) Assign(ctx context.Context, in domain.AssignInput) error {
	if err := validator.Validate(in); err != nil {
		return fmt.Errorf("validate %s: %w", chatResource, err)
	}
	req, err := jsonRequest(http.MethodPost, "/chat/assign", chatResource, in)
	if err != nil {
		return err
	}
	return c.client.do(ctx, req, nil)
}
