// Package api is the client for the order-management HTTP API.
package api

import (
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
)

// API groups the resource clients sharing one authenticated Client.
type API struct {
	Auth       *AuthClient
	Categories *Resource[domain.Category, domain.CategoryInput]
	Products   *ProductsClient
	Orders     *OrdersClient
	Payments   *Resource[domain.Payment, domain.PaymentInput]
	Deliveries *Resource[domain.Delivery, domain.DeliveryInput]
	Promotions *PromotionsClient
	Users      *Resource[domain.User, domain.UserInput]
	Chat       *ChatClient
}

// New builds every resource client on top of one Client.
func New(baseURL string, doer HTTPDoer, creds Credentials, logger *slog.Logger) *API {
	c := NewClient(baseURL, doer, creds, logger)
	return &API{
		Auth:       NewAuthClient(c),
		Categories: NewResource[domain.Category, domain.CategoryInput](c, "/categories", "categories"),
		Products:   NewProductsClient(c),
		Orders:     NewOrdersClient(c),
		Payments:   NewResource[domain.Payment, domain.PaymentInput](c, "/paiements", "paiements"),
		Deliveries: NewResource[domain.Delivery, domain.DeliveryInput](c, "/livraisons", "livraisons"),
		Promotions: NewPromotionsClient(c),
		Users:      NewResource[domain.User, domain.UserInput](c, "/users", "users"),
		Chat:       NewChatClient(c),
	}
}
