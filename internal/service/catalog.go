package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/seq"
)

const catalogQueryKey = "catalog"

// StockFilterAll disables the stock status filter.
const StockFilterAll = "tous"

// CatalogFilter narrows the catalog snapshot. Zero values match everything.
type CatalogFilter struct {
	StockStatus string
	CategoryID  int64
	Query       string
}

// Catalog is the product listing view model. It keeps the snapshot of the
// most recently dispatched refresh; responses overtaken by a newer refresh
// are discarded.
type Catalog struct {
	products ProductLister
	session  IdentitySource
	tracker  *seq.Tracker
	logger   *slog.Logger

	mu    sync.RWMutex
	items []domain.Product
}

// NewCatalog creates an empty Catalog.
func NewCatalog(products ProductLister, session IdentitySource, logger *slog.Logger) *Catalog {
	return &Catalog{
		products: products,
		session:  session,
		tracker:  seq.NewTracker(),
		logger:   logger,
	}
}

// Refresh fetches the catalog for the current role. It reports false when
// the response was discarded because a newer refresh had been dispatched.
func (c *Catalog) Refresh(ctx context.Context) (bool, error) {
	role := domain.RoleClient
	if user := c.session.CurrentIdentity(); user != nil {
		role = user.Role
	}

	tk := c.tracker.Begin(catalogQueryKey)
	items, err := c.products.ListForRole(ctx, role)
	if err != nil {
		if !c.tracker.IsLatest(tk) {
			return false, nil
		}
		return false, fmt.Errorf("refresh catalog: %w", err)
	}

	applied := c.tracker.Apply(tk, func() {
		c.mu.Lock()
		c.items = items
		c.mu.Unlock()
	})
	if !applied {
		c.logger.DebugContext(ctx, "discarding stale catalog response",
			slog.Int("items", len(items)),
		)
	}
	return applied, nil
}

// Products returns a copy of the current snapshot.
func (c *Catalog) Products() []domain.Product {
	return c.Filter(CatalogFilter{})
}

// Filter returns the products of the snapshot matching f, in API order.
func (c *Catalog) Filter(f CatalogFilter) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]domain.Product, 0, len(c.items))
	for _, p := range c.items {
		if f.StockStatus != "" && f.StockStatus != StockFilterAll && p.StockStatus != f.StockStatus {
			continue
		}
		if f.CategoryID != 0 && p.CategorieID != f.CategoryID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Nom), query) {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}

// Find returns the product with id from the snapshot.
func (c *Catalog) Find(id int64) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.items {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return domain.Product{}, false
}
