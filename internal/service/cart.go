package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/observable"
)

// corruptSuffix is appended to the cart key when an undecodable payload is
// moved aside.
const corruptSuffix = ".corrupt"

// Cart is the shopping cart of one client session. Lines are kept in
// insertion order, one per product id, and the whole sequence is written to
// the store after every mutation. Cart operations never fail: storage errors
// are logged and the in-memory state stays authoritative.
type Cart struct {
	mu     sync.Mutex
	emitMu sync.Mutex
	store  repository.KV
	key    string
	lines  domain.CartLines
	count  *observable.Value[int]
	logger *slog.Logger
}

// NewCart restores the cart persisted under key. A missing key yields an
// empty cart; an undecodable payload is moved to key+".corrupt" and the cart
// starts empty.
func NewCart(ctx context.Context, store repository.KV, key string, logger *slog.Logger) *Cart {
	c := &Cart{
		store:  store,
		key:    key,
		logger: logger,
	}
	c.lines = c.restore(ctx)
	c.count = observable.New(c.lines.ItemCount())
	return c
}

func (c *Cart) restore(ctx context.Context) domain.CartLines {
	data, err := c.store.Get(ctx, c.key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			c.logger.ErrorContext(ctx, "failed to read persisted cart, starting empty",
				slog.String("key", c.key),
				slog.String("error", err.Error()),
			)
		}
		return domain.CartLines{}
	}

	var lines domain.CartLines
	if err := json.Unmarshal(data, &lines); err != nil {
		c.quarantine(ctx, data, err)
		return domain.CartLines{}
	}
	return sanitize(lines)
}

// quarantine keeps an undecodable payload under the corrupt key so it can be
// inspected, then removes it from the cart key.
func (c *Cart) quarantine(ctx context.Context, data []byte, decodeErr error) {
	c.logger.WarnContext(ctx, "discarding undecodable cart payload",
		slog.String("key", c.key),
		slog.String("moved_to", c.key+corruptSuffix),
		slog.Int("bytes", len(data)),
		slog.String("error", decodeErr.Error()),
	)
	if err := c.store.Set(ctx, c.key+corruptSuffix, data); err != nil {
		c.logger.ErrorContext(ctx, "failed to keep corrupt cart payload",
			slog.String("key", c.key+corruptSuffix),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := c.store.Delete(ctx, c.key); err != nil {
		c.logger.ErrorContext(ctx, "failed to remove corrupt cart payload",
			slog.String("key", c.key),
			slog.String("error", err.Error()),
		)
	}
}

// sanitize merges duplicate product ids and drops non-positive quantities
// from a decoded payload.
func sanitize(in domain.CartLines) domain.CartLines {
	out := make(domain.CartLines, 0, len(in))
	for _, line := range in {
		if line.Quantity <= 0 {
			continue
		}
		if i := out.FindIndex(line.Product.ID); i >= 0 {
			out[i].Quantity += line.Quantity
			continue
		}
		out = append(out, line)
	}
	return out
}

// mutate applies fn under the cart lock, persists the result and emits the
// new item count. The emit lock is taken before the cart lock is released so
// counts are delivered in mutation order.
func (c *Cart) mutate(ctx context.Context, op string, fn func()) {
	c.mu.Lock()
	fn()
	c.persistLocked(ctx, op)
	n := c.lines.ItemCount()
	c.emitMu.Lock()
	c.mu.Unlock()

	defer c.emitMu.Unlock()
	c.count.Set(n)
}

func (c *Cart) persistLocked(ctx context.Context, op string) {
	data, err := json.Marshal(c.lines)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to encode cart",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		c.logger.ErrorContext(ctx, "failed to persist cart",
			slog.String("op", op),
			slog.String("key", c.key),
			slog.String("error", err.Error()),
		)
	}
}

// Add increments the line of product by quantity, or appends a new line
// holding a snapshot of product. A line whose quantity drops to zero or
// below is removed.
func (c *Cart) Add(ctx context.Context, product domain.Product, quantity int) {
	c.mutate(ctx, "add", func() {
		if i := c.lines.FindIndex(product.ID); i >= 0 {
			c.lines[i].Quantity += quantity
			if c.lines[i].Quantity <= 0 {
				c.lines = append(c.lines[:i], c.lines[i+1:]...)
			}
			return
		}
		if quantity <= 0 {
			return
		}
		c.lines = append(c.lines, domain.CartLine{Product: product.Clone(), Quantity: quantity})
	})

	c.logger.DebugContext(ctx, "product added to cart",
		slog.Int64("product_id", product.ID),
		slog.Int("quantity", quantity),
	)
}

// Remove drops the line of productID if present.
func (c *Cart) Remove(ctx context.Context, productID int64) {
	c.mutate(ctx, "remove", func() {
		c.removeLocked(productID)
	})
}

func (c *Cart) removeLocked(productID int64) {
	if i := c.lines.FindIndex(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// SetQuantity sets the quantity of an existing line; a quantity of zero or
// less removes it. Absent products are ignored.
func (c *Cart) SetQuantity(ctx context.Context, productID int64, quantity int) {
	c.mutate(ctx, "set_quantity", func() {
		if quantity <= 0 {
			c.removeLocked(productID)
			return
		}
		if i := c.lines.FindIndex(productID); i >= 0 {
			c.lines[i].Quantity = quantity
		}
	})
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) {
	c.mutate(ctx, "clear", func() {
		c.lines = domain.CartLines{}
	})
}

// Lines returns a deep copy of the cart lines.
func (c *Cart) Lines() domain.CartLines {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines.Clone()
}

// Total returns the sum of unit price times quantity.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines.TotalAmount()
}

// Count returns the last emitted item count.
func (c *Cart) Count() int {
	return c.count.Get()
}

// SubscribeCount calls fn with the current item count and then after every
// mutation. fn must not mutate the cart.
func (c *Cart) SubscribeCount(fn func(int)) (unsubscribe func()) {
	return c.count.Subscribe(fn)
}

// Contains reports whether productID has a line.
func (c *Cart) Contains(productID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines.FindIndex(productID) >= 0
}

// QuantityOf returns the quantity of productID, or 0.
func (c *Cart) QuantityOf(productID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.lines.FindIndex(productID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}
