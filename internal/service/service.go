// Package service holds the client-side state (cart, session) and the view
// models that combine it with the order-management API.
package service

import (
	"context"

	"github.com/utafrali/storefront/internal/domain"
)

// Authenticator is the part of the API the session store drives.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.TokenResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*domain.User, error)
}

// IdentitySource exposes the last known identity.
type IdentitySource interface {
	CurrentIdentity() *domain.User
}

// Lister lists every item of one API collection.
type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// ProductLister lists the catalog visible to a role.
type ProductLister interface {
	ListForRole(ctx context.Context, role domain.Role) ([]domain.Product, error)
}

// OrderLister lists all orders (staff) or the caller's own orders (client).
type OrderLister interface {
	Lister[domain.Order]
	ListMine(ctx context.Context) ([]domain.Order, error)
}

// OrderCreator places orders.
type OrderCreator interface {
	Create(ctx context.Context, in domain.OrderInput) (*domain.Order, error)
}

// ChatAPI is the chat endpoint surface used by the chat view model.
type ChatAPI interface {
	Conversations(ctx context.Context) ([]domain.Conversation, error)
	UnreadCount(ctx context.Context) (int, error)
	Messages(ctx context.Context, clientID int64, employeID *int64) ([]domain.ChatMessage, error)
	Send(ctx context.Context, in domain.SendMessageInput) (*domain.ChatMessage, error)
	Reply(ctx context.Context, in domain.ReplyInput) (*domain.ChatMessage, error)
	Delete(ctx context.Context, messageID int64) error
	MarkRead(ctx context.Context, messageID int64) error
	MarkConversationRead(ctx context.Context, clientID int64, employeID *int64) error
	Assign(ctx context.Context, in domain.AssignInput) error
}
