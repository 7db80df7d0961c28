package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/utafrali/storefront/internal/authz"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/observable"
)

// Chat is the customer-service chat view model. It fills the sender fields
// from the current identity and applies the delete rule before calling the API.
type Chat struct {
	api     ChatAPI
	session IdentitySource
	logger  *slog.Logger
}

// NewChat creates a Chat.
func NewChat(chatAPI ChatAPI, session IdentitySource, logger *slog.Logger) *Chat {
	return &Chat{api: chatAPI, session: session, logger: logger}
}

func (c *Chat) identity() (*domain.User, error) {
	user := c.session.CurrentIdentity()
	if user == nil {
		return nil, apperrors.Unauthorized("not signed in")
	}
	return user, nil
}

// Conversations lists the conversations of the current user.
func (c *Chat) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	return c.api.Conversations(ctx)
}

// Messages returns the conversation with clientID.
func (c *Chat) Messages(ctx context.Context, clientID int64, employeID *int64) ([]domain.ChatMessage, error) {
	return c.api.Messages(ctx, clientID, employeID)
}

// Send posts message as the current client, optionally to one employee.
func (c *Chat) Send(ctx context.Context, message string, employeID *int64) (*domain.ChatMessage, error) {
	user, err := c.identity()
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleClient {
		return nil, apperrors.Forbidden("staff reply to a client conversation instead")
	}
	return c.api.Send(ctx, domain.SendMessageInput{
		ClientID:    user.ID,
		EmployeID:   employeID,
		Message:     message,
		EmeteurType: user.Role,
		EmeteurID:   user.ID,
	})
}

// Reply posts message to clientID's conversation as the current staff member.
func (c *Chat) Reply(ctx context.Context, clientID int64, message string) (*domain.ChatMessage, error) {
	user, err := c.identity()
	if err != nil {
		return nil, err
	}
	if !user.Role.Staff() {
		return nil, apperrors.Forbidden("only staff can reply")
	}
	return c.api.Reply(ctx, domain.ReplyInput{ClientID: clientID, Message: message})
}

// CanDelete reports whether the current user may delete msg.
func (c *Chat) CanDelete(msg domain.ChatMessage) bool {
	return authz.CanDeleteMessage(c.session.CurrentIdentity(), msg)
}

// Delete removes msg after checking the delete rule locally.
func (c *Chat) Delete(ctx context.Context, msg domain.ChatMessage) error {
	if !c.CanDelete(msg) {
		return apperrors.Forbidden("you can only delete your own messages")
	}
	if err := c.api.Delete(ctx, msg.ID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// MarkRead marks one message as read.
func (c *Chat) MarkRead(ctx context.Context, messageID int64) error {
	return c.api.MarkRead(ctx, messageID)
}

// MarkConversationRead marks the conversation with clientID as read.
func (c *Chat) MarkConversationRead(ctx context.Context, clientID int64, employeID *int64) error {
	return c.api.MarkConversationRead(ctx, clientID, employeID)
}

// Assign hands clientID's conversation to employeID. Staff only.
func (c *Chat) Assign(ctx context.Context, clientID, employeID int64) error {
	if !authz.Allows(c.session.CurrentIdentity(), domain.RoleAdmin, domain.RoleEmploye) {
		return apperrors.Forbidden("only staff can assign conversations")
	}
	return c.api.Assign(ctx, domain.AssignInput{ClientID: clientID, EmployeID: employeID})
}

// UnreadCounter is the endpoint polled by ChatPoller.
type UnreadCounter interface {
	UnreadCount(ctx context.Context) (int, error)
}

// ChatPoller polls the unread message count at a fixed pace and publishes
// it to subscribers.
type ChatPoller struct {
	api     UnreadCounter
	limiter *rate.Limiter
	unread  *observable.Value[int]
	logger  *slog.Logger
}

// NewChatPoller creates a poller issuing at most one request per every.
func NewChatPoller(counter UnreadCounter, every time.Duration, logger *slog.Logger) *ChatPoller {
	return &ChatPoller{
		api:     counter,
		limiter: rate.NewLimiter(rate.Every(every), 1),
		unread:  observable.New(0),
		logger:  logger,
	}
}

// PollOnce fetches the unread count and publishes it.
func (p *ChatPoller) PollOnce(ctx context.Context) (int, error) {
	n, err := p.api.UnreadCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("poll unread count: %w", err)
	}
	p.unread.Set(n)
	return n, nil
}

// Run polls until ctx is done or the session is rejected. Other errors are
// logged and polling continues.
func (p *ChatPoller) Run(ctx context.Context) error {
	for {
		if err := p.limiter.Wait(ctx); err != nil {
			// Wait fails early when the next slot lies past the deadline.
			<-ctx.Done()
			return nil
		}
		if _, err := p.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, apperrors.ErrUnauthorized) || errors.Is(err, apperrors.ErrForbidden) {
				return err
			}
			p.logger.WarnContext(ctx, "chat poll failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

// Unread returns the last polled unread count.
func (p *ChatPoller) Unread() int {
	return p.unread.Get()
}

// SubscribeUnread calls fn with the current unread count and after every poll.
func (p *ChatPoller) SubscribeUnread(fn func(int)) (unsubscribe func()) {
	return p.unread.Subscribe(fn)
}
