package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/authz"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

// Checkout turns the cart into an order.
type Checkout struct {
	cart    *Cart
	orders  OrderCreator
	session IdentitySource
	logger  *slog.Logger
}

// NewCheckout creates a Checkout.
func NewCheckout(cart *Cart, orders OrderCreator, session IdentitySource, logger *slog.Logger) *Checkout {
	return &Checkout{cart: cart, orders: orders, session: session, logger: logger}
}

// PlaceOrder submits the cart lines as a new order paid with mode. The cart
// is cleared only when the API accepted the order; on failure it is left
// untouched so the client can retry.
func (c *Checkout) PlaceOrder(ctx context.Context, mode string) (*domain.Order, error) {
	user := c.session.CurrentIdentity()
	if !authz.Allows(user, domain.RoleClient) {
		return nil, apperrors.Forbidden("only clients can place orders")
	}

	lines := c.cart.Lines()
	if len(lines) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}
	in := lines.OrderInput(mode)
	if err := validator.Validate(in); err != nil {
		return nil, fmt.Errorf("validate order: %w", err)
	}

	order, err := c.orders.Create(ctx, in)
	if err != nil {
		c.logger.WarnContext(ctx, "order rejected, cart kept",
			slog.Int64("user_id", user.ID),
			slog.Int("lines", len(lines)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("place order: %w", err)
	}

	c.cart.Clear(ctx)
	c.logger.InfoContext(ctx, "order placed",
		slog.Int64("user_id", user.ID),
		slog.Int64("order_id", order.ID),
		slog.String("montant_total", order.MontantTotal.String()),
	)
	return order, nil
}
